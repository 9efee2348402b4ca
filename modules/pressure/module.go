// Package pressure encodes contact forces into the fixed pressure slot
// map.
package pressure

import (
	"context"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/registry"
	"github.com/Kakcalu13/webots-controllers/internal/sensors"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// encodePressure packs the snapshot's contact forces into the stable
// 20-slot layout.
func encodePressure(ctx context.Context, devices capability.Group, st *sim.State) (map[string]any, error) {
	packed := sensors.Pressure(st.ContactForces)
	out := make(map[string]any, len(packed))
	for id, force := range packed {
		out[id] = []float64{force[0], force[1], force[2]}
	}
	return out, nil
}

// Register registers the handler with the device registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEncoder(&registry.RegisteredEncoder{
		DeviceType: capability.DevicePressure,
		Fn:         encodePressure,
	})
}
