package ingest

import (
	"context"

	"github.com/nrocha/peerchat/internal/bus"
	"github.com/nrocha/peerchat/internal/messages"
	"go.uber.org/zap"
)

// Engine consumes decoded relay payloads from the bus and feeds them
// through the message handler. Handler errors are logged and the loop
// keeps going: a bad payload must never stall ingestion.
type Engine struct {
	bus     *bus.Bus
	handler *messages.Handler
	logger  *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewEngine(b *bus.Bus, handler *messages.Handler, logger *zap.Logger) *Engine {
	return &Engine{
		bus:     b,
		handler: handler,
		logger:  logger,
	}
}

// Start launches the ingestion loop in the background.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})

	ch, unsub := e.bus.Subscribe("relay.message", 64)
	go func() {
		defer close(e.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				raw, ok := evt.Payload.(*messages.Raw)
				if !ok {
					e.logger.Warn("unexpected relay.message payload",
						zap.Any("payload", evt.Payload))
					continue
				}
				if _, err := e.handler.Handle(ctx, raw); err != nil {
					e.logger.Error("message handling failed",
						zap.String("id", raw.ID),
						zap.String("type", raw.Type),
						zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop shuts the loop down and waits for it to drain.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.done != nil {
		<-e.done
	}
}
