package pns

// SensoryMessage is the outbound burst document.
type SensoryMessage struct {
	Timestamp float64     `json:"timestamp"`
	Burst     uint64      `json:"burst"`
	AgentID   string      `json:"agent_id,omitempty"`
	Data      SensoryData `json:"data"`
}

// SensoryData wraps the per-device-type burst entries.
type SensoryData struct {
	// SensoryData maps device type to device-id keyed entries.
	SensoryData map[string]map[string]any `json:"sensory_data"`
}

// MotorMessage is the inbound burst document from FEAGI.
type MotorMessage struct {
	// BurstFrequency, when set, announces a new stimulation period in
	// seconds.
	BurstFrequency float64   `json:"burst_frequency,omitempty"`
	Data           MotorData `json:"data"`
}

// MotorData wraps the per-device-type actuator payloads.
type MotorData struct {
	// MotorData maps output device type to its raw payload.
	MotorData map[string]any `json:"motor_data"`
}
