package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// connectTimeout bounds the initial socket.io handshake.
const connectTimeout = 10 * time.Second

// socketIOChannel speaks to the playground's socket.io queue. The client
// library handles reconnection; inbound motor events are re-encoded to
// JSON so both transports deliver the same byte shape.
type socketIOChannel struct {
	io     *socket.Socket
	logger *slog.Logger

	recv      chan []byte
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func dialSocketIO(ctx context.Context, cfg Config, logger *slog.Logger) (Channel, error) {
	baseURL := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	logger = logger.With("transport", "socketio", "url", baseURL)

	opts := socket.DefaultOptions()
	opts.SetTransports(types.NewSet(transports.WebSocket))
	if cfg.AgentID != "" {
		opts.SetQuery(url.Values{"agent_id": []string{cfg.AgentID}})
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/feagi"
	}

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	ch := &socketIOChannel{
		io:     io,
		logger: logger,
		recv:   make(chan []byte, 64),
	}

	connected := make(chan error, 1)

	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected to FEAGI queue.", "namespace", namespace, "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("socket.io connect error: %v", errs[0])
		}
		select {
		case connected <- err:
		default:
		}
	})

	io.On(types.EventName(EventMotor), func(data ...any) {
		if len(data) == 0 {
			return
		}
		payload, err := json.Marshal(data[0])
		if err != nil {
			logger.Warn("Dropping undecodable motor event.", "error", err)
			return
		}
		ch.deliver(payload)
	})

	io.Connect()

	opCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	select {
	case <-opCtx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out while waiting for initial connection to %s", baseURL)
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("failed to connect to FEAGI queue: %w", err)
		}
	}

	return ch, nil
}

// Send implements Channel. The payload travels as a decoded JSON document
// so server-side listeners receive a structured event.
func (c *socketIOChannel) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("sensory payload is not valid JSON: %w", err)
	}
	if err := c.io.Emit(EventSensory, doc); err != nil {
		return fmt.Errorf("failed to emit sensory burst: %w", err)
	}
	return nil
}

// Receive implements Channel.
func (c *socketIOChannel) Receive() <-chan []byte {
	return c.recv
}

// deliver hands an inbound payload to the receive queue. The client
// library dispatches events from its own goroutine, so sends happen under
// a read lock; closeRecv takes the write lock, which means no send can be
// in flight against a closed channel.
func (c *socketIOChannel) deliver(payload []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.recv <- payload:
	default:
		c.logger.Warn("Inbound queue full, dropping motor burst.")
	}
}

// closeRecv marks the channel closed and releases the receive queue.
func (c *socketIOChannel) closeRecv() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	close(c.recv)
}

// Close implements Channel.
func (c *socketIOChannel) Close() error {
	c.closeOnce.Do(func() {
		c.logger.Debug("Disconnecting socket client.")
		c.io.Disconnect()
		c.closeRecv()
	})
	return nil
}
