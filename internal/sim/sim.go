// Package sim defines the simulator surface the controller drives and a
// kinematic in-process implementation for local runs and tests.
package sim

import (
	"errors"

	"github.com/Kakcalu13/webots-controllers/internal/retina"
)

// FreeJointDOF is the number of leading generalized-coordinate entries
// occupied by the scene's free joint. They are not actuated joints and are
// stripped before joint positions are published.
const FreeJointDOF = 7

// ErrOutOfRange reports a command aimed at a control index the scene does
// not have. Such commands are dropped by the gateway, not applied.
var ErrOutOfRange = errors.New("control index out of range")

// CommandKind discriminates actuator commands.
type CommandKind int

const (
	// CommandServoPosition sets an absolute servo target.
	CommandServoPosition CommandKind = iota
	// CommandMotorPower sets a motor power level.
	CommandMotorPower
)

// Command is one decoded actuator instruction.
type Command struct {
	Kind  CommandKind
	Index int
	Value float64
}

// State is a snapshot of the simulator, safe for the caller to retain.
type State struct {
	// Positions are the joint positions with the free joint stripped.
	Positions []float64
	// ActuatorNames lists the scene's actuators in control order, aligned
	// with Positions.
	ActuatorNames []string
	// Sensors holds raw readings keyed by normalized sensor name.
	Sensors map[string][]float64
	// ContactForces are the active contact force vectors.
	ContactForces [][3]float64
	// Vision is the current camera frame, nil when the scene has none.
	Vision *retina.Frame
}

// PositionOf returns the joint position driven by the named actuator.
func (s *State) PositionOf(name string) (float64, bool) {
	for i, n := range s.ActuatorNames {
		if n == name && i < len(s.Positions) {
			return s.Positions[i], true
		}
	}
	return 0, false
}

// Simulator is the embodiment the controller steps and commands.
type Simulator interface {
	// Step advances the simulation by one tick.
	Step() error
	// Snapshot returns the current state.
	Snapshot() State
	// Apply executes a single actuator command.
	Apply(cmd Command) error
	// ControlCount reports how many controls the scene exposes.
	ControlCount() int
}
