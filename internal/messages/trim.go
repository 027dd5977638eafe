package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/nrocha/peerchat/internal/bus"
	"github.com/nrocha/peerchat/internal/metrics"
	"github.com/nrocha/peerchat/internal/store"
	"golang.org/x/sync/errgroup"
)

// conversationStore is the slice of the message store the trimmer uses.
type conversationStore interface {
	ConversationMessages(a, b string) ([]store.Message, error)
	DeleteMessage(id string) error
}

// Trimmer caps the number of retained messages per direct conversation.
type Trimmer struct {
	db      conversationStore
	bus     *bus.Bus
	selfUID string
}

// NewTrimmer creates a retention trimmer for the local identity.
func NewTrimmer(db conversationStore, b *bus.Bus, selfUID string) *Trimmer {
	return &Trimmer{db: db, bus: b, selfUID: selfUID}
}

// Trim deletes the oldest messages of the conversation implied by
// lastReceived so the retained count stays within MessageLimit. It only
// applies to direct messages between the local user and exactly one
// other party. lastReceived is not yet persisted and counts toward the
// cap. Deletions fan out concurrently; any failure fails the whole trim.
func (t *Trimmer) Trim(ctx context.Context, lastReceived *store.Message) error {
	if !t.applicable(lastReceived) {
		return nil
	}

	conv, err := t.db.ConversationMessages(t.selfUID, lastReceived.SenderUID)
	if err != nil {
		return fmt.Errorf("list conversation: %w", err)
	}

	numTooMany := len(conv) + 1 - MessageLimit
	if numTooMany <= 0 {
		return nil
	}

	oldest := conv[:numTooMany]
	g, _ := errgroup.WithContext(ctx)
	for _, m := range oldest {
		m := m
		g.Go(func() error {
			return t.db.DeleteMessage(m.ID)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("delete old messages: %w", err)
	}

	metrics.AddTrimmed(numTooMany)
	t.bus.Publish(bus.Event{
		Kind:      "message.trimmed",
		Timestamp: time.Now(),
		Payload: map[string]any{
			"contact_uid": lastReceived.SenderUID,
			"deleted":     numTooMany,
		},
	})
	return nil
}

func (t *Trimmer) applicable(m *store.Message) bool {
	if Target(m.Target) != TargetWhisper {
		return false
	}
	// Self-sent copies are not a conversation with another party.
	return m.SenderUID != "" && m.SenderUID != t.selfUID
}
