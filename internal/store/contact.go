package store

import (
	"database/sql"
	"time"
)

// FindOrCreateContact returns the contact for uid, creating it when
// absent. A non-empty name updates the stored display name (peers supply
// their name with every message).
func (db *DB) FindOrCreateContact(uid, name string) (*Contact, error) {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO contacts (uid, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE contacts.name END,
			updated_at = excluded.updated_at`,
		uid, name, now, now)
	if err != nil {
		return nil, err
	}
	return db.GetContact(uid)
}

// GetContact returns a contact by uid, or nil when absent.
func (db *DB) GetContact(uid string) (*Contact, error) {
	var c Contact
	err := db.QueryRow(`SELECT uid, name, num_unread, online FROM contacts WHERE uid = ?`, uid).
		Scan(&c.UID, &c.Name, &c.NumUnread, &c.Online)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// IncrementUnread bumps the unread counter for a contact.
func (db *DB) IncrementUnread(uid string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE contacts SET num_unread = num_unread + 1, updated_at = ? WHERE uid = ?`, now, uid)
	return err
}

// SetOnline records a contact's presence.
func (db *DB) SetOnline(uid string, online bool) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE contacts SET online = ?, updated_at = ? WHERE uid = ?`, online, now, uid)
	return err
}

// ContactCount returns the total number of contacts.
func (db *DB) ContactCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&count)
	return count, err
}
