// Package motor decodes motor power commands, smoothing each channel
// through the rolling window its capability declares.
package motor

import (
	"context"
	"sync"

	"github.com/Kakcalu13/webots-controllers/internal/actuators"
	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/ctxlog"
	"github.com/Kakcalu13/webots-controllers/internal/registry"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
)

// Module implements the registry.Module interface. It is stateful: the
// per-channel rolling windows live for the duration of the session.
type Module struct {
	mu      sync.Mutex
	windows map[int]*actuators.RollingWindow
}

// New creates the motor module.
func New() *Module {
	return &Module{windows: map[int]*actuators.RollingWindow{}}
}

func (m *Module) window(index int, devices capability.Group) *actuators.RollingWindow {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[index]
	if !ok {
		length := 1
		for _, props := range devices {
			if props.FeagiIndex == index && props.RollingWindowLen > 0 {
				length = props.RollingWindowLen
				break
			}
		}
		w = actuators.NewRollingWindow(length)
		m.windows[index] = w
	}
	return w
}

// decodeMotor is the handler for inbound motor power payloads. Raw powers
// pass through the channel's rolling window before reaching the simulator.
func (m *Module) decodeMotor(ctx context.Context, devices capability.Group, payload any, apply func(sim.Command) error) error {
	logger := ctxlog.FromContext(ctx).With("device", capability.DeviceMotor)

	commands, err := actuators.DecodeIndexed(payload)
	if err != nil {
		return err
	}

	for index, power := range commands {
		smoothed := m.window(index, devices).Add(power)
		err := apply(sim.Command{
			Kind:  sim.CommandMotorPower,
			Index: index,
			Value: smoothed,
		})
		if err != nil {
			return err
		}
	}
	if len(commands) > 0 {
		logger.Debug("Applied motor commands.", "count", len(commands))
	}
	return nil
}

// Register registers the handler with the device registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDecoder(&registry.RegisteredDecoder{
		DeviceType: capability.DeviceMotor,
		Fn:         m.decodeMotor,
	})
}
