package store

import (
	"database/sql"
	"time"
)

// InsertMessage persists a new message. The caller is responsible for
// dedup; inserting an id that already exists is an error.
func (db *DB) InsertMessage(m *Message) error {
	now := time.Now().UnixMilli()
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	_, err := db.Exec(`
		INSERT INTO messages (id, type, target, sender_uid, recipient_uid, body, sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Type, m.Target, m.SenderUID, m.RecipientUID, m.Body, m.SentAt, m.CreatedAt)
	return err
}

// GetMessage returns a message by id, or nil when absent.
func (db *DB) GetMessage(id string) (*Message, error) {
	var m Message
	err := db.QueryRow(`
		SELECT rowid, id, type, target, sender_uid, recipient_uid, body, sent_at, created_at
		FROM messages WHERE id = ?`, id).
		Scan(&m.Seq, &m.ID, &m.Type, &m.Target, &m.SenderUID, &m.RecipientUID, &m.Body, &m.SentAt, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ConversationMessages returns all whisper messages exchanged between the
// two given uids, in insertion order (oldest first). Insertion order, not
// sent_at, is the ordering authority for retention trimming.
func (db *DB) ConversationMessages(a, b string) ([]Message, error) {
	rows, err := db.Query(`
		SELECT rowid, id, type, target, sender_uid, recipient_uid, body, sent_at, created_at
		FROM messages
		WHERE target = 'whisper'
		  AND ((sender_uid = ? AND recipient_uid = ?) OR (sender_uid = ? AND recipient_uid = ?))
		ORDER BY rowid ASC`, a, b, b, a)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Seq, &m.ID, &m.Type, &m.Target, &m.SenderUID, &m.RecipientUID, &m.Body, &m.SentAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// DeleteMessage permanently removes a message. Confirmation references
// owned by the message are removed by the ON DELETE CASCADE.
func (db *DB) DeleteMessage(id string) error {
	_, err := db.Exec(`DELETE FROM messages WHERE id = ?`, id)
	return err
}

// MessageCount returns the total number of stored messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
