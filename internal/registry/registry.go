package registry

import (
	"context"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
)

// Module is the interface all device modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// SensorEncoder builds the burst entries for one input device group from a
// simulator snapshot. The returned map is keyed by device id.
type SensorEncoder func(ctx context.Context, devices capability.Group, st *sim.State) (map[string]any, error)

// ActuatorDecoder translates one output device group's inbound payload
// into simulator commands, delivered through apply.
type ActuatorDecoder func(ctx context.Context, devices capability.Group, payload any, apply func(sim.Command) error) error

// Registry holds the registered device codecs for a single application
// instance.
type Registry struct {
	EncoderRegistry map[string]*RegisteredEncoder
	DecoderRegistry map[string]*RegisteredDecoder
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		EncoderRegistry: make(map[string]*RegisteredEncoder),
		DecoderRegistry: make(map[string]*RegisteredDecoder),
	}
}
