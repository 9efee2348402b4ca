// Package capability derives the agent's device capability document from a
// parsed scene description. FEAGI uses this document during registration to
// map cortical areas onto the embodiment's sensors and actuators.
package capability

import (
	"encoding/json"
)

// Device type names as FEAGI knows them.
const (
	DeviceServo     = "servo"
	DeviceMotor     = "motor"
	DeviceGyro      = "gyro"
	DeviceProximity = "proximity"
	DeviceCamera    = "camera"
	DevicePressure  = "pressure"
)

// TransmissionTypes maps MJCF actuator element types to FEAGI output
// device types.
var TransmissionTypes = map[string]string{
	"position": DeviceServo,
	"motor":    DeviceMotor,
}

// SensingTypes maps MJCF sensor element types to FEAGI input device types.
var SensingTypes = map[string]string{
	"framequat":   DeviceGyro,
	"distance":    DeviceProximity,
	"rangefinder": DeviceCamera,
}

// Properties describes one device instance within a device group.
type Properties struct {
	CustomName       string  `json:"custom_name,omitempty"`
	FeagiIndex       int     `json:"feagi_index"`
	Disabled         bool    `json:"disabled,omitempty"`
	MinValue         float64 `json:"min_value,omitempty"`
	MaxValue         float64 `json:"max_value,omitempty"`
	MaxPower         float64 `json:"max_power,omitempty"`
	RollingWindowLen int     `json:"rolling_window_len,omitempty"`
}

// Group is a set of device instances of one type, keyed by their decimal
// device id ("0", "1", ...).
type Group map[string]Properties

// Capabilities is the full capability document sent to FEAGI.
type Capabilities struct {
	Input  map[string]Group `json:"input"`
	Output map[string]Group `json:"output"`
}

// Clone returns a deep copy.
func (c Capabilities) Clone() Capabilities {
	out := Capabilities{
		Input:  make(map[string]Group, len(c.Input)),
		Output: make(map[string]Group, len(c.Output)),
	}
	for name, group := range c.Input {
		out.Input[name] = cloneGroup(group)
	}
	for name, group := range c.Output {
		out.Output[name] = cloneGroup(group)
	}
	return out
}

func cloneGroup(g Group) Group {
	out := make(Group, len(g))
	for id, props := range g {
		out[id] = props
	}
	return out
}

// MarshalIndent renders the document as indented JSON. Map keys are sorted
// by encoding/json, so output is deterministic.
func (c Capabilities) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(c, "", "    ")
}

// DefaultTemplate is the built-in capability template, used when the
// controller config does not override device defaults. The index-0 entry of
// each group seeds the properties of every discovered device of that type.
func DefaultTemplate() Capabilities {
	return Capabilities{
		Input: map[string]Group{
			DeviceGyro:      {"0": Properties{MinValue: -180, MaxValue: 180}},
			DeviceProximity: {"0": Properties{MaxValue: 10}},
			DeviceCamera:    {"0": Properties{}},
			DevicePressure:  {"0": Properties{MinValue: -50, MaxValue: 50}},
		},
		Output: map[string]Group{
			DeviceServo: {"0": Properties{MinValue: -1, MaxValue: 1}},
			DeviceMotor: {"0": Properties{MaxPower: 1, RollingWindowLen: 2}},
		},
	}
}
