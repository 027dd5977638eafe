package messages

import (
	"encoding/json"
	"time"

	"github.com/nrocha/peerchat/internal/bus"
	"github.com/nrocha/peerchat/internal/store"
	"go.uber.org/zap"
)

// AutoResponder receives fire-and-forget hooks from the handler. Hook
// failures are logged, never surfaced to message processing.
type AutoResponder interface {
	MessageReceived(msg *store.Message)
	CameOnline(contact *store.Contact)
}

// Responder is the default auto-responder: it queues a delivery
// confirmation for every received chat so the sending peer can mark the
// message as delivered.
type Responder struct {
	db      *store.DB
	factory *Factory
	bus     *bus.Bus
	logger  *zap.Logger
}

// NewResponder creates the default auto-responder.
func NewResponder(db *store.DB, factory *Factory, b *bus.Bus, logger *zap.Logger) *Responder {
	return &Responder{db: db, factory: factory, bus: b, logger: logger}
}

// MessageReceived queues a delivery confirmation for a received chat.
func (r *Responder) MessageReceived(msg *store.Message) {
	switch Type(msg.Type) {
	case TypeChat, TypeEmote:
	default:
		return
	}
	if msg.SenderUID == "" || msg.SenderUID == r.factory.SelfUID() {
		return
	}

	raw := r.factory.BuildDeliveryConfirmation(msg.ID)
	payload, err := json.Marshal(raw)
	if err != nil {
		r.logger.Warn("failed to encode delivery confirmation", zap.Error(err), zap.String("msg_id", msg.ID))
		return
	}
	if err := r.db.QueueOutbox(raw.ID, msg.SenderUID, string(payload)); err != nil {
		r.logger.Warn("failed to queue delivery confirmation", zap.Error(err), zap.String("msg_id", msg.ID))
		return
	}
	r.bus.Publish(bus.Event{
		Kind:      "outbox.queued",
		Timestamp: time.Now(),
		Payload:   map[string]string{"client_msg_id": raw.ID, "recipient_uid": msg.SenderUID},
	})
}

// CameOnline is invoked whenever any traffic arrives from a contact.
func (r *Responder) CameOnline(contact *store.Contact) {
	r.logger.Debug("contact traffic observed", zap.String("uid", contact.UID))
}
