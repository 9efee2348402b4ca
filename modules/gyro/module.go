// Package gyro encodes frame-orientation sensors into Euler-degree burst
// entries.
package gyro

import (
	"context"
	"fmt"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/registry"
	"github.com/Kakcalu13/webots-controllers/internal/sensors"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// encodeGyro converts each gyro device's quaternion reading to roll,
// pitch, yaw in degrees. Devices with no reading this tick are skipped.
func encodeGyro(ctx context.Context, devices capability.Group, st *sim.State) (map[string]any, error) {
	out := map[string]any{}
	for id, props := range devices {
		if props.Disabled {
			continue
		}
		reading, ok := st.Sensors[props.CustomName]
		if !ok {
			continue
		}
		euler, err := sensors.EulerFromQuatReading(reading)
		if err != nil {
			return nil, fmt.Errorf("gyro %q: %w", props.CustomName, err)
		}
		out[id] = []float64{euler[0], euler[1], euler[2]}
	}
	return out, nil
}

// Register registers the handler with the device registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEncoder(&registry.RegisteredEncoder{
		DeviceType: capability.DeviceGyro,
		Fn:         encodeGyro,
	})
}
