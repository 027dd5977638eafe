package store

// Message is a stored chat message. ID is the sender-assigned identifier
// and the dedup key; Seq is the SQLite rowid, which records insertion order.
type Message struct {
	Seq          int64
	ID           string
	Type         string
	Target       string
	SenderUID    string
	RecipientUID string
	Body         string
	SentAt       int64
	CreatedAt    int64
}

// Contact represents a remote peer. The local user is never stored here.
type Contact struct {
	UID       string
	Name      string
	NumUnread int
	Online    bool
}

// OutboxEntry represents a pending outgoing relay payload.
type OutboxEntry struct {
	ID           int64
	ClientMsgID  string
	RecipientUID string
	Payload      string
	Status       string // queued, sending, sent, failed
	ErrorMessage string
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
