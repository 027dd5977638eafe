package outbox

import (
	"context"
	"time"

	"github.com/nrocha/peerchat/internal/bus"
	"github.com/nrocha/peerchat/internal/metrics"
	"github.com/nrocha/peerchat/internal/store"
	"go.uber.org/zap"
)

const drainInterval = 500 * time.Millisecond

// PayloadSender delivers an encoded payload to a recipient. The relay
// client satisfies this.
type PayloadSender interface {
	Send(ctx context.Context, recipientUID string, payload []byte) error
}

// Sender drains queued outbox entries to the relay on a ticker. Entries
// that fail to send are marked failed with the error recorded; they are
// not retried automatically.
type Sender struct {
	db     *store.DB
	relay  PayloadSender
	bus    *bus.Bus
	logger *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSender(db *store.DB, relay PayloadSender, b *bus.Bus, logger *zap.Logger) *Sender {
	return &Sender{
		db:     db,
		relay:  relay,
		bus:    b,
		logger: logger,
	}
}

// Start launches the drain loop in the background.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(drainInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.drain(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the drain loop and waits for the current pass to finish.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

func (s *Sender) drain(ctx context.Context) {
	pending, err := s.db.PendingOutbox()
	if err != nil {
		s.logger.Error("outbox query failed", zap.Error(err))
		return
	}
	for _, entry := range pending {
		if ctx.Err() != nil {
			return
		}
		s.sendOne(ctx, entry)
	}
}

func (s *Sender) sendOne(ctx context.Context, entry store.OutboxEntry) {
	if err := s.db.MarkOutboxSending(entry.ClientMsgID); err != nil {
		s.logger.Error("outbox status update failed",
			zap.String("client_msg_id", entry.ClientMsgID), zap.Error(err))
		return
	}

	if err := s.relay.Send(ctx, entry.RecipientUID, []byte(entry.Payload)); err != nil {
		s.logger.Warn("outbox send failed",
			zap.String("client_msg_id", entry.ClientMsgID),
			zap.String("recipient", entry.RecipientUID),
			zap.Error(err))
		if dbErr := s.db.MarkOutboxFailed(entry.ClientMsgID, err.Error()); dbErr != nil {
			s.logger.Error("outbox status update failed",
				zap.String("client_msg_id", entry.ClientMsgID), zap.Error(dbErr))
		}
		metrics.IncOutboxFailed()
		s.bus.Publish(bus.Event{
			Kind:      "outbox.failed",
			Timestamp: time.Now(),
			Payload:   entry.ClientMsgID,
		})
		return
	}

	if err := s.db.MarkOutboxSent(entry.ClientMsgID); err != nil {
		s.logger.Error("outbox status update failed",
			zap.String("client_msg_id", entry.ClientMsgID), zap.Error(err))
		return
	}
	metrics.IncOutboxSent()
	s.logger.Debug("outbox entry sent",
		zap.String("client_msg_id", entry.ClientMsgID),
		zap.String("recipient", entry.RecipientUID))
	s.bus.Publish(bus.Event{
		Kind:      "outbox.sent",
		Timestamp: time.Now(),
		Payload:   entry.ClientMsgID,
	})
}
