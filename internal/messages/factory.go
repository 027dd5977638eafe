package messages

import (
	"time"

	"github.com/google/uuid"
	"github.com/nrocha/peerchat/internal/config"
	"github.com/nrocha/peerchat/internal/store"
)

// Factory builds message entities and outgoing payloads for the local
// identity.
type Factory struct {
	identity config.Identity
}

// NewFactory creates a message factory.
func NewFactory(identity config.Identity) *Factory {
	return &Factory{identity: identity}
}

// SelfUID returns the local identity uid.
func (f *Factory) SelfUID() string {
	return f.identity.UID
}

// BuildReceived constructs a new message entity from a raw inbound
// payload on first sight of its id. The sender is kept as a weak
// reference (uid only), never an embedded contact record.
func (f *Factory) BuildReceived(raw *Raw) *store.Message {
	recipient := f.identity.UID
	if Target(raw.Target) == TargetChannel {
		// Channel decomposition is not implemented; the raw target
		// string is retained and no recipient is attributed.
		recipient = ""
	}
	return &store.Message{
		ID:           raw.ID,
		Type:         raw.Type,
		Target:       raw.Target,
		SenderUID:    raw.Sender.UID,
		RecipientUID: recipient,
		Body:         raw.Body,
		SentAt:       raw.SentAt,
		CreatedAt:    time.Now().UnixMilli(),
	}
}

// BuildChat constructs an outgoing whisper chat payload.
func (f *Factory) BuildChat(recipientUID, body string) *Raw {
	return &Raw{
		ID:     uuid.New().String(),
		Sender: SenderInfo{UID: f.identity.UID, Name: f.identity.Name},
		Type:   string(TypeChat),
		Target: string(TargetWhisper),
		Body:   body,
		SentAt: time.Now().UnixMilli(),
	}
}

// BuildDeliveryConfirmation constructs an outgoing confirmation for a
// received message.
func (f *Factory) BuildDeliveryConfirmation(confirmsID string) *Raw {
	return &Raw{
		ID:     uuid.New().String(),
		Sender: SenderInfo{UID: f.identity.UID, Name: f.identity.Name},
		Type:   string(TypeDeliveryConfirmation),
		Target: string(TargetWhisper),
		To:     confirmsID,
		SentAt: time.Now().UnixMilli(),
	}
}
