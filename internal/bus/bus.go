package bus

import (
	"strings"
	"sync"
)

// Bus fans daemon events out to in-process subscribers. A subscriber
// names a dotted-kind prefix ("relay.", "message.stored", ...) and gets
// every event whose Kind starts with it.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscriber
}

type subscriber struct {
	prefix string
	ch     chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]subscriber)}
}

// Publish delivers evt to every subscriber whose prefix matches.
// Delivery is non-blocking: a subscriber with a full buffer misses the
// event rather than stalling the publisher, so the relay read loop and
// the handler can never be held up by a slow consumer.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !strings.HasPrefix(evt.Kind, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// Subscribe registers interest in event kinds starting with prefix and
// returns the delivery channel plus an unsubscribe function. bufSize is
// the channel buffer; size it for the subscriber's burst tolerance.
func (b *Bus) Subscribe(prefix string, bufSize int) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscriber{prefix: prefix, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
