package notify

import (
	"context"
	"time"

	"github.com/nrocha/peerchat/internal/bus"
)

// Notifier is the sink for user-facing notifications. Delivery is
// best-effort; callers must not fail message processing on error.
type Notifier interface {
	Info(ctx context.Context, text string) error
}

// BusNotifier publishes notifications on the event bus for whatever UI
// front-end is attached to this profile.
type BusNotifier struct {
	bus *bus.Bus
}

// NewBusNotifier creates a bus-backed notifier.
func NewBusNotifier(b *bus.Bus) *BusNotifier {
	return &BusNotifier{bus: b}
}

// Info publishes an informational notification.
func (n *BusNotifier) Info(_ context.Context, text string) error {
	n.bus.Publish(bus.Event{
		Kind:      "notification.info",
		Timestamp: time.Now(),
		Payload:   text,
	})
	return nil
}
