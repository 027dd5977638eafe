package presence

import (
	"time"

	"github.com/nrocha/peerchat/internal/bus"
	"github.com/nrocha/peerchat/internal/store"
)

// Tracker records online/offline presence for contacts. Presence is
// inferred from any inbound traffic, not just chat messages.
type Tracker struct {
	db  *store.DB
	bus *bus.Bus
}

// NewTracker creates a presence tracker.
func NewTracker(db *store.DB, b *bus.Bus) *Tracker {
	return &Tracker{db: db, bus: b}
}

// MarkOnline records that a contact is online.
func (t *Tracker) MarkOnline(c *store.Contact) error {
	if c == nil {
		return nil
	}
	if err := t.db.SetOnline(c.UID, true); err != nil {
		return err
	}
	t.bus.Publish(bus.Event{
		Kind:      "contact.online",
		Timestamp: time.Now(),
		Payload:   c.UID,
	})
	return nil
}

// MarkOffline records that the peer behind uid went offline.
func (t *Tracker) MarkOffline(uid string) error {
	if uid == "" {
		return nil
	}
	if err := t.db.SetOnline(uid, false); err != nil {
		return err
	}
	t.bus.Publish(bus.Event{
		Kind:      "contact.offline",
		Timestamp: time.Now(),
		Payload:   uid,
	})
	return nil
}
