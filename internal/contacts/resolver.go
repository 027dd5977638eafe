package contacts

import (
	"errors"

	"github.com/nrocha/peerchat/internal/store"
)

// ErrInvalidSender is returned when sender info cannot resolve to a
// contact-like entity. Callers drop the message silently on this error.
var ErrInvalidSender = errors.New("sender info does not resolve to a contact")

// Resolver maps a remote sender identifier + display name to a local
// contact record, creating one if absent. The local user is a
// distinguished singleton and never becomes a Contact.
type Resolver struct {
	db      *store.DB
	selfUID string
}

// NewResolver creates a resolver for the given local identity uid.
func NewResolver(db *store.DB, selfUID string) *Resolver {
	return &Resolver{db: db, selfUID: selfUID}
}

// Resolve returns the contact for the sender, creating it on first sight.
// For the local user it returns (nil, true, nil). A sender with no uid is
// malformed and yields ErrInvalidSender.
func (r *Resolver) Resolve(uid, name string) (contact *store.Contact, self bool, err error) {
	if uid == "" {
		return nil, false, ErrInvalidSender
	}
	if uid == r.selfUID {
		return nil, true, nil
	}
	c, err := r.db.FindOrCreateContact(uid, name)
	if err != nil {
		return nil, false, err
	}
	return c, false, nil
}

// SelfUID returns the local user's uid.
func (r *Resolver) SelfUID() string {
	return r.selfUID
}
