// Package proximity encodes distance sensors into burst entries.
package proximity

import (
	"context"
	"fmt"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/registry"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// encodeProximity publishes each distance sensor's current range reading.
func encodeProximity(ctx context.Context, devices capability.Group, st *sim.State) (map[string]any, error) {
	out := map[string]any{}
	for id, props := range devices {
		if props.Disabled {
			continue
		}
		reading, ok := st.Sensors[props.CustomName]
		if !ok || len(reading) == 0 {
			continue
		}
		value := reading[0]
		if props.MaxValue > 0 && value > props.MaxValue {
			return nil, fmt.Errorf("proximity %q: reading %v beyond declared range %v",
				props.CustomName, value, props.MaxValue)
		}
		out[id] = value
	}
	return out, nil
}

// Register registers the handler with the device registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEncoder(&registry.RegisteredEncoder{
		DeviceType: capability.DeviceProximity,
		Fn:         encodeProximity,
	})
}
