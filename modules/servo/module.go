// Package servo decodes absolute servo position commands from motor
// bursts and publishes joint positions back to FEAGI.
package servo

import (
	"context"

	"github.com/Kakcalu13/webots-controllers/internal/actuators"
	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/ctxlog"
	"github.com/Kakcalu13/webots-controllers/internal/registry"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// decodeServo is the handler for inbound servo position payloads. Values
// arrive as absolute targets within the device's capability range.
func decodeServo(ctx context.Context, devices capability.Group, payload any, apply func(sim.Command) error) error {
	logger := ctxlog.FromContext(ctx).With("device", capability.DeviceServo)

	commands, err := actuators.DecodeIndexed(payload)
	if err != nil {
		return err
	}

	for index, value := range commands {
		err := apply(sim.Command{
			Kind:  sim.CommandServoPosition,
			Index: index,
			Value: value,
		})
		if err != nil {
			return err
		}
	}
	if len(commands) > 0 {
		logger.Debug("Applied servo commands.", "count", len(commands))
	}
	return nil
}

// encodeServoPositions publishes the current joint positions so FEAGI can
// close the loop on servo placement. Each device reads the joint its own
// actuator drives, which keeps the report correct when servos are
// interleaved with other actuator types in the scene.
func encodeServoPositions(ctx context.Context, devices capability.Group, st *sim.State) (map[string]any, error) {
	out := make(map[string]any, len(devices))
	for id, props := range devices {
		if props.Disabled {
			continue
		}
		position, ok := st.PositionOf(props.CustomName)
		if !ok {
			continue
		}
		out[id] = position
	}
	return out, nil
}

// Register registers the handlers with the device registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDecoder(&registry.RegisteredDecoder{
		DeviceType: capability.DeviceServo,
		Fn:         decodeServo,
	})
	r.RegisterEncoder(&registry.RegisteredEncoder{
		DeviceType: "servo_position",
		Fn:         encodeServoPositions,
	})
}
