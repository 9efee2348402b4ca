package config

import (
	"github.com/Kakcalu13/webots-controllers/internal/capability"
)

// FeagiSettings tunes how the controller talks to the FEAGI instance.
type FeagiSettings struct {
	// APIVersion is the REST API version segment ("v1").
	APIVersion string
	// BurstFrequency is the fallback stimulation period in seconds, used
	// until FEAGI reports its live one.
	BurstFrequency float64
}

// AgentSettings identifies this embodiment towards FEAGI.
type AgentSettings struct {
	ID       string
	Type     string
	DataPort int
}

// SimulationSettings drives the local step loop.
type SimulationSettings struct {
	// StepRate is the physics step rate in Hz.
	StepRate int
	// RuntimeSeconds limits a run; 0 means run until interrupted.
	RuntimeSeconds float64
	// Keyframe is the scene keyframe loaded on reset.
	Keyframe int
	// CapabilitiesPath is where the generated capability document is
	// exported. Empty disables the export.
	CapabilitiesPath string
}

// Model is the unified controller configuration: built-in defaults,
// overlaid by the optional HCL config file.
type Model struct {
	Feagi        FeagiSettings
	Agent        AgentSettings
	Simulation   SimulationSettings
	Capabilities capability.Capabilities
}

// Default returns the built-in configuration used when no config file is
// present.
func Default() *Model {
	return &Model{
		Feagi: FeagiSettings{
			APIVersion:     "v1",
			BurstFrequency: 0.1,
		},
		Agent: AgentSettings{
			ID:   "mujoco_controller",
			Type: "embodiment",
		},
		Simulation: SimulationSettings{
			StepRate:         120,
			Keyframe:         4,
			CapabilitiesPath: "capabilities.json",
		},
		Capabilities: capability.DefaultTemplate(),
	}
}
