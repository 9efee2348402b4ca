package sim

import (
	"fmt"
	"sync"

	"github.com/Kakcalu13/webots-controllers/internal/actuators"
	"github.com/Kakcalu13/webots-controllers/internal/mjcf"
	"github.com/Kakcalu13/webots-controllers/internal/retina"
)

// Options tunes the kinematic simulator.
type Options struct {
	// StepRate is the step frequency in Hz, used as the integration step
	// for motor-driven joints. Defaults to 120.
	StepRate int
	// Keyframe is recorded for parity with scene resets; the kinematic
	// model always starts from the zero pose.
	Keyframe int
}

// Kinematic is a physics-free stand-in for a full MuJoCo binding: position
// actuators track their target directly, motor actuators integrate their
// power, and sensor readings are injected by the embedding process. It is
// safe for concurrent use by the step loop and the gateway.
type Kinematic struct {
	mu sync.Mutex

	doc      *mjcf.Document
	opts     Options
	qpos     []float64
	controls []float64
	sensors  map[string][]float64
	forces   [][3]float64
	vision   *retina.Frame
}

// NewKinematic builds a simulator from a parsed scene.
func NewKinematic(doc *mjcf.Document, opts Options) (*Kinematic, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil scene document")
	}
	if opts.StepRate < 1 {
		opts.StepRate = 120
	}

	k := &Kinematic{
		doc:      doc,
		opts:     opts,
		qpos:     make([]float64, FreeJointDOF+len(doc.Actuators)),
		controls: make([]float64, len(doc.Actuators)),
		sensors:  map[string][]float64{},
	}

	for _, sensor := range doc.Sensors {
		name := mjcf.NormalizeSensorName(sensor.Name, sensor.Type)
		switch sensor.Type {
		case "framequat":
			k.sensors[name] = []float64{1, 0, 0, 0}
		default:
			k.sensors[name] = []float64{0}
		}
	}
	return k, nil
}

// ControlCount implements Simulator.
func (k *Kinematic) ControlCount() int {
	return len(k.controls)
}

// Apply implements Simulator. Commands aimed beyond the control count
// return ErrOutOfRange; values are clamped into the actuator's ctrlrange.
func (k *Kinematic) Apply(cmd Command) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if cmd.Index < 0 || cmd.Index >= len(k.controls) {
		return fmt.Errorf("%w: %d of %d controls", ErrOutOfRange, cmd.Index, len(k.controls))
	}

	rng := k.doc.Actuators[cmd.Index].CtrlRange
	k.controls[cmd.Index] = actuators.Clamp(cmd.Value, rng[0], rng[1])
	return nil
}

// Step implements Simulator. Position actuators snap to their control
// target; motor actuators integrate power over the step interval.
func (k *Kinematic) Step() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	dt := 1 / float64(k.opts.StepRate)
	for i, actuator := range k.doc.Actuators {
		joint := FreeJointDOF + i
		switch actuator.Type {
		case "motor":
			next := k.qpos[joint] + k.controls[i]*dt
			k.qpos[joint] = actuators.Clamp(next, actuator.CtrlRange[0], actuator.CtrlRange[1])
		default:
			k.qpos[joint] = k.controls[i]
		}
	}
	return nil
}

// Snapshot implements Simulator.
func (k *Kinematic) Snapshot() State {
	k.mu.Lock()
	defer k.mu.Unlock()

	st := State{
		Positions:     append([]float64(nil), k.qpos[FreeJointDOF:]...),
		ActuatorNames: make([]string, len(k.doc.Actuators)),
		Sensors:       make(map[string][]float64, len(k.sensors)),
	}
	for i, actuator := range k.doc.Actuators {
		st.ActuatorNames[i] = actuator.Name
	}
	for name, reading := range k.sensors {
		st.Sensors[name] = append([]float64(nil), reading...)
	}
	if len(k.forces) > 0 {
		st.ContactForces = append([][3]float64(nil), k.forces...)
	}
	if k.vision != nil {
		frame := *k.vision
		frame.Pixels = append([]uint8(nil), k.vision.Pixels...)
		st.Vision = &frame
	}
	return st
}

// SetSensor injects a raw sensor reading, keyed by normalized name.
func (k *Kinematic) SetSensor(name string, reading []float64) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.sensors[name]; !ok {
		return fmt.Errorf("unknown sensor %q", name)
	}
	k.sensors[name] = append([]float64(nil), reading...)
	return nil
}

// SetContactForces replaces the active contact force set.
func (k *Kinematic) SetContactForces(forces [][3]float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.forces = append([][3]float64(nil), forces...)
}

// SetVision replaces the current camera frame.
func (k *Kinematic) SetVision(frame *retina.Frame) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.vision = frame
}
