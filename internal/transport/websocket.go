package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Backoff bounds for websocket redials.
const (
	redialInitialWait = time.Second
	redialMaxWait     = 30 * time.Second
)

// wsChannel is a plain websocket pipe for direct FEAGI deployments.
// Outbound frames are sensory bursts, inbound frames motor bursts. The
// read pump redials with exponential backoff until Close is called.
type wsChannel struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	recv      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func dialWebSocket(ctx context.Context, cfg Config, logger *slog.Logger) (Channel, error) {
	u := url.URL{
		Scheme:   "ws",
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/",
		RawQuery: url.Values{"agent_id": []string{cfg.AgentID}}.Encode(),
	}
	logger = logger.With("transport", "websocket", "url", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", u.String(), err)
	}
	logger.Info("Connected to FEAGI queue.")

	ch := &wsChannel{
		url:    u.String(),
		logger: logger,
		conn:   conn,
		recv:   make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go ch.readPump()
	return ch, nil
}

func (c *wsChannel) readPump() {
	defer close(c.recv)

	wait := redialInitialWait
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		_, payload, err := conn.ReadMessage()
		if err == nil {
			wait = redialInitialWait
			select {
			case c.recv <- payload:
			default:
				c.logger.Warn("Inbound queue full, dropping motor burst.")
			}
			continue
		}

		select {
		case <-c.done:
			return
		default:
		}

		c.logger.Warn("Connection lost, redialing.", "error", err, "wait", wait)
		select {
		case <-c.done:
			return
		case <-time.After(wait):
		}
		if wait *= 2; wait > redialMaxWait {
			wait = redialMaxWait
		}

		next, _, err := websocket.DefaultDialer.Dial(c.url, nil)
		if err != nil {
			c.logger.Warn("Redial failed.", "error", err)
			continue
		}
		c.mu.Lock()
		c.conn = next
		c.mu.Unlock()
		c.logger.Info("Reconnected to FEAGI queue.")
	}
}

// Send implements Channel.
func (c *wsChannel) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to send sensory burst: %w", err)
	}
	return nil
}

// Receive implements Channel.
func (c *wsChannel) Receive() <-chan []byte {
	return c.recv
}

// Close implements Channel.
func (c *wsChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		err = c.conn.Close()
		c.mu.Unlock()
	})
	return err
}
