package messages

// Type is the declared kind of a peer-to-peer message.
type Type string

const (
	TypeChat                 Type = "chat"
	TypeEmote                Type = "emote"
	TypeDeliveryConfirmation Type = "delivery-confirmation"
	TypeDisconnect           Type = "disconnect"
	TypeChannelSyncRequest   Type = "info-channel-sync"
	TypePing                 Type = "ping"
)

// Target determines routing within chat-type messages.
type Target string

const (
	TargetWhisper Target = "whisper"
	TargetChannel Target = "channel"
)

// MessageLimit caps the number of retained messages per conversation.
// When exceeded, the oldest (by insertion order) are deleted first.
const MessageLimit = 100

// SenderInfo identifies the remote peer that produced a payload. The
// display name is supplied by the peer at message time and may change.
type SenderInfo struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// Raw is the inbound wire payload exchanged over the relay. Type and
// Target are carried as strings so unrecognized values survive intact.
type Raw struct {
	ID     string     `json:"id"`
	Sender SenderInfo `json:"sender"`
	Type   string     `json:"type"`
	Target string     `json:"target"`
	// To is the id of the message a delivery confirmation refers to.
	To     string `json:"to,omitempty"`
	Body   string `json:"body,omitempty"`
	SentAt int64  `json:"sentAt,omitempty"`
}
