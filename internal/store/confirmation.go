package store

import "time"

// AddConfirmation appends a delivery-confirmation reference to the
// confirming message's collection. messageID is the confirming message;
// confirmsID is the message whose delivery it confirms.
func (db *DB) AddConfirmation(messageID, confirmsID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO confirmations (message_id, confirms_id, created_at)
		VALUES (?, ?, ?)`,
		messageID, confirmsID, now)
	return err
}

// InsertConfirmedMessage persists a delivery-confirmation message
// together with the reference to the message it confirms. Both writes
// share one transaction: a failure leaves neither row behind, so a
// redelivery of the confirmation can retry instead of short-circuiting
// on a half-recorded one.
func (db *DB) InsertConfirmedMessage(m *Message, confirmsID string) error {
	now := time.Now().UnixMilli()
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO messages (id, type, target, sender_uid, recipient_uid, body, sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Type, m.Target, m.SenderUID, m.RecipientUID, m.Body, m.SentAt, m.CreatedAt); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO confirmations (message_id, confirms_id, created_at)
		VALUES (?, ?, ?)`,
		m.ID, confirmsID, now); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ConfirmationsFor returns the ordered list of message ids that the given
// message confirms delivery of.
func (db *DB) ConfirmationsFor(messageID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT confirms_id FROM confirmations WHERE message_id = ? ORDER BY id ASC`, messageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
