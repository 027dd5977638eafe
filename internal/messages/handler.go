package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/nrocha/peerchat/internal/bus"
	"github.com/nrocha/peerchat/internal/contacts"
	"github.com/nrocha/peerchat/internal/metrics"
	"github.com/nrocha/peerchat/internal/notify"
	"github.com/nrocha/peerchat/internal/presence"
	"github.com/nrocha/peerchat/internal/store"
	"go.uber.org/zap"
)

// Handler reconciles inbound peer-to-peer payloads against the local
// store: it resolves the sender, infers presence, deduplicates by
// message id, and dispatches by declared type and target.
type Handler struct {
	db        *store.DB
	resolver  *contacts.Resolver
	presence  *presence.Tracker
	responder AutoResponder
	notifier  notify.Notifier
	factory   *Factory
	trimmer   *Trimmer
	bus       *bus.Bus
	logger    *zap.Logger
	ids       *keyedMutex
}

// NewHandler creates the received-message handler.
func NewHandler(
	db *store.DB,
	resolver *contacts.Resolver,
	tracker *presence.Tracker,
	responder AutoResponder,
	notifier notify.Notifier,
	factory *Factory,
	trimmer *Trimmer,
	b *bus.Bus,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		db:        db,
		resolver:  resolver,
		presence:  tracker,
		responder: responder,
		notifier:  notifier,
		factory:   factory,
		trimmer:   trimmer,
		bus:       b,
		logger:    logger,
		ids:       newKeyedMutex(),
	}
}

// Handle processes a raw inbound payload. It returns the stored (or
// newly constructed) message, or (nil, nil) when the payload is dropped
// for unresolvable sender info. Redeliveries of an already-stored id
// return the existing message without re-running type dispatch.
func (h *Handler) Handle(ctx context.Context, raw *Raw) (*store.Message, error) {
	sender, self, err := h.resolver.Resolve(raw.Sender.UID, raw.Sender.Name)
	if err == contacts.ErrInvalidSender {
		// Silent-drop policy: nothing is returned, no error surfaces.
		h.logger.Warn("dropping payload with unresolvable sender", zap.String("id", raw.ID))
		metrics.IncDropped()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}

	// Presence is inferred from any traffic, not just chat. The online
	// mark completes before dispatch so a disconnect carried by the same
	// payload cannot race it and lose; failure still never gates
	// processing. Only the responder hook stays detached.
	if !self {
		if err := h.presence.MarkOnline(sender); err != nil {
			h.logger.Warn("failed to mark sender online", zap.Error(err), zap.String("uid", sender.UID))
		}
		go h.responder.CameOnline(sender)
	}

	// Senders may redeliver a message they never marked as sent, so the
	// same id can arrive multiple times. Serialize per id so a racing
	// redelivery cannot slip past the dedup check.
	unlock := h.ids.lock(raw.ID)
	defer unlock()

	existing, err := h.db.GetMessage(raw.ID)
	if err != nil {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		metrics.IncDedupHit()
		return existing, nil
	}

	msg := h.factory.BuildReceived(raw)
	metrics.IncReceived(raw.Type)

	switch Type(raw.Type) {
	case TypeChat, TypeEmote:
		// Emote is a rendering variant of chat, not a behavioral one.
		return h.handleChat(ctx, msg, sender)

	case TypeDeliveryConfirmation:
		return h.handleDeliveryConfirmation(msg, raw)

	case TypeDisconnect:
		return h.handleDisconnect(msg)

	case TypeChannelSyncRequest:
		// Placeholder until channel sync is implemented.
		return msg, nil

	case TypePing:
		// No chat-level ack: the relay socket already acknowledges
		// delivery at the transport level.
		return msg, nil

	default:
		h.logger.Info("unrecognized message type",
			zap.String("type", raw.Type), zap.String("id", raw.ID))
		return msg, nil
	}
}

func (h *Handler) handleChat(ctx context.Context, msg *store.Message, sender *store.Contact) (*store.Message, error) {
	go h.responder.MessageReceived(msg)

	switch Target(msg.Target) {
	case TargetWhisper:
		return h.handleWhisper(ctx, msg, sender)

	case TargetChannel:
		return h.handleChannelChat(msg)

	default:
		h.logger.Info("unrecognized message target",
			zap.String("target", msg.Target), zap.String("id", msg.ID))
		return msg, nil
	}
}

func (h *Handler) handleWhisper(ctx context.Context, msg *store.Message, sender *store.Contact) (*store.Message, error) {
	if err := h.trimmer.Trim(ctx, msg); err != nil {
		return nil, fmt.Errorf("trim conversation: %w", err)
	}
	if err := h.db.InsertMessage(msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	h.bus.Publish(bus.Event{
		Kind:      "message.stored",
		Timestamp: time.Now(),
		Payload:   map[string]string{"msg_id": msg.ID, "sender_uid": msg.SenderUID},
	})

	// Best-effort from here on: failures never roll back persistence.
	if sender != nil {
		if err := h.db.IncrementUnread(sender.UID); err != nil {
			h.logger.Warn("failed to increment unread", zap.Error(err), zap.String("uid", sender.UID))
		}
		if err := h.notifier.Info(ctx, fmt.Sprintf("New message from %s", sender.Name)); err != nil {
			h.logger.Warn("notification delivery failed", zap.Error(err))
			metrics.IncNotifyFailure()
		}
	}

	return msg, nil
}

func (h *Handler) handleChannelChat(msg *store.Message) (*store.Message, error) {
	// TODO: deconstruct channel info once channel messages carry it.
	return msg, nil
}

// handleDeliveryConfirmation records msg as confirming delivery of the
// message named by raw.To. A missing target is fatal: the confirmation
// cannot be recorded, and the error surfaces to the caller.
func (h *Handler) handleDeliveryConfirmation(msg *store.Message, raw *Raw) (*store.Message, error) {
	target, err := h.db.GetMessage(raw.To)
	if err != nil {
		return nil, fmt.Errorf("confirmation target lookup: %w", err)
	}
	if target == nil {
		return nil, fmt.Errorf("delivery confirmation %s: target message %q not found", raw.ID, raw.To)
	}

	// One transaction for both rows: a half-recorded confirmation would
	// dedup-block every redelivery of the same id.
	if err := h.db.InsertConfirmedMessage(msg, target.ID); err != nil {
		return nil, fmt.Errorf("record confirmation: %w", err)
	}

	h.bus.Publish(bus.Event{
		Kind:      "message.confirmed",
		Timestamp: time.Now(),
		Payload:   map[string]string{"msg_id": msg.ID, "confirms_id": target.ID},
	})
	return msg, nil
}

func (h *Handler) handleDisconnect(msg *store.Message) (*store.Message, error) {
	uid := msg.SenderUID
	go func() {
		if err := h.presence.MarkOffline(uid); err != nil {
			h.logger.Warn("failed to mark sender offline", zap.Error(err), zap.String("uid", uid))
		}
	}()
	return msg, nil
}
