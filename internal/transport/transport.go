// Package transport carries burst traffic between the controller and
// FEAGI's messaging queue. Two wire implementations exist: the socket.io
// playground endpoint and a raw websocket.
package transport

import (
	"context"
	"fmt"
	"log/slog"
)

// Kind names a wire implementation.
type Kind string

const (
	// KindSocketIO is the playground's socket.io endpoint.
	KindSocketIO Kind = "socketio"
	// KindWebSocket is a plain websocket endpoint.
	KindWebSocket Kind = "websocket"
)

// Event names on the queue.
const (
	EventSensory = "sensory"
	EventMotor   = "motor"
)

// Config describes the endpoint to dial.
type Config struct {
	Kind Kind
	Host string
	Port int
	// Namespace applies to socket.io connections.
	Namespace string
	// AgentID identifies this embodiment on the queue.
	AgentID string
}

// Channel is a bidirectional burst pipe. Receive delivers inbound motor
// payloads as raw JSON; the channel closes it when the connection is torn
// down for good.
type Channel interface {
	Send(ctx context.Context, payload []byte) error
	Receive() <-chan []byte
	Close() error
}

// Dial connects the configured transport.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (Channel, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("transport host must not be empty")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("transport port %d out of range", cfg.Port)
	}

	switch cfg.Kind {
	case KindSocketIO:
		return dialSocketIO(ctx, cfg, logger)
	case KindWebSocket:
		return dialWebSocket(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Kind)
	}
}
