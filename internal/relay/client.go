package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nrocha/peerchat/internal/bus"
	"github.com/nrocha/peerchat/internal/messages"
	"github.com/nrocha/peerchat/internal/metrics"
	"github.com/nrocha/peerchat/internal/status"
	"go.uber.org/zap"
)

// ErrNotConnected is returned by Send while the relay socket is down.
var ErrNotConnected = errors.New("relay: not connected")

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
)

// envelope is the relay framing. Inbound frames carry Message; outbound
// frames additionally carry the recipient uid for routing.
type envelope struct {
	To      string          `json:"to,omitempty"`
	Message json.RawMessage `json:"message"`
}

// subscribeFrame announces the local identity to the relay on connect.
type subscribeFrame struct {
	Type string `json:"type"`
	UID  string `json:"uid"`
}

// Client maintains the websocket connection to the relay. Decoded
// inbound payloads are published on the bus as "relay.message" events;
// the ingest engine consumes them independently.
type Client struct {
	url     string
	selfUID string
	bus     *bus.Bus
	machine *status.Machine
	logger  *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
}

// NewClient creates a relay client.
func NewClient(url, selfUID string, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *Client {
	return &Client{
		url:     url,
		selfUID: selfUID,
		bus:     b,
		machine: machine,
		logger:  logger,
	}
}

// Start begins the connect/read/reconnect loop in the background.
func (c *Client) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	go c.run(ctx)
}

// Stop tears down the connection and stops reconnecting. Safe to call
// without a prior Start.
func (c *Client) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// Send delivers an outgoing payload to the given recipient via the relay.
func (c *Client) Send(_ context.Context, recipientUID string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(envelope{To: recipientUID, Message: payload})
}

func (c *Client) run(ctx context.Context) {
	delay := reconnectBaseDelay
	for {
		if ctx.Err() != nil {
			return
		}
		_ = c.machine.Transition(status.Connecting)

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.logger.Warn("relay dial failed", zap.Error(err), zap.String("url", c.url))
			_ = c.machine.Transition(status.Reconnecting)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay = min(delay*2, reconnectMaxDelay)
			continue
		}
		delay = reconnectBaseDelay

		if err := c.subscribe(conn); err != nil {
			c.logger.Warn("relay subscribe failed", zap.Error(err))
			_ = conn.Close()
			_ = c.machine.Transition(status.Reconnecting)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		_ = c.machine.Transition(status.Ready)
		metrics.SetRelayConnected(true)
		c.logger.Info("relay connected", zap.String("url", c.url))
		c.bus.Publish(bus.Event{Kind: "relay.connected", Timestamp: time.Now()})

		c.readLoop(ctx, conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		metrics.SetRelayConnected(false)
		c.bus.Publish(bus.Event{Kind: "relay.disconnected", Timestamp: time.Now()})
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("relay disconnected, reconnecting")
		_ = c.machine.Transition(status.Reconnecting)
	}
}

func (c *Client) subscribe(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(subscribeFrame{Type: "subscribe", UID: c.selfUID})
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("relay read error", zap.Error(err))
			}
			_ = conn.Close()
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("malformed relay frame", zap.Error(err))
			continue
		}
		body := env.Message
		if body == nil {
			// Bare payloads (no envelope) are accepted too.
			body = data
		}

		var raw messages.Raw
		if err := json.Unmarshal(body, &raw); err != nil {
			c.logger.Warn("malformed relay payload", zap.Error(err))
			continue
		}

		c.bus.Publish(bus.Event{
			Kind:      "relay.message",
			Timestamp: time.Now(),
			Payload:   &raw,
		})
	}
}
