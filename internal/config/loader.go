package config

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/ctxlog"
	"github.com/Kakcalu13/webots-controllers/internal/fsutil"
)

// rootFile mirrors the structure of a controller.hcl file.
type rootFile struct {
	Feagi        *feagiBlock       `hcl:"feagi,block"`
	Agent        *agentBlock       `hcl:"agent,block"`
	Simulation   *simulationBlock  `hcl:"simulation,block"`
	Capabilities []capabilityBlock `hcl:"capability,block"`
}

type feagiBlock struct {
	APIVersion     *string  `hcl:"api_version,optional"`
	BurstFrequency *float64 `hcl:"burst_frequency,optional"`
}

type agentBlock struct {
	ID       *string `hcl:"id,optional"`
	Type     *string `hcl:"type,optional"`
	DataPort *int    `hcl:"data_port,optional"`
}

type simulationBlock struct {
	StepRate         *int     `hcl:"step_rate,optional"`
	RuntimeSeconds   *float64 `hcl:"runtime_seconds,optional"`
	Keyframe         *int     `hcl:"keyframe,optional"`
	CapabilitiesPath *string  `hcl:"capabilities_path,optional"`
}

type capabilityBlock struct {
	Direction        string   `hcl:"direction,label"`
	DeviceType       string   `hcl:"type,label"`
	MinValue         *float64 `hcl:"min_value,optional"`
	MaxValue         *float64 `hcl:"max_value,optional"`
	MaxPower         *float64 `hcl:"max_power,optional"`
	RollingWindowLen *int     `hcl:"rolling_window_len,optional"`
	Disabled         *bool    `hcl:"disabled,optional"`
}

// Loader reads controller configuration from HCL files.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a config loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load resolves the configuration at path. Path may be a single .hcl file,
// a directory of .hcl files (merged in lexical order, later files win), or
// empty for built-in defaults. The deployment variables are exposed to HCL
// expressions as `deployment.mode` and `deployment.host`.
func (l *Loader) Load(ctx context.Context, path string, deploymentMode, deploymentHost string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := Default()

	if path == "" {
		logger.Debug("No config path given, using built-in defaults.")
		return model, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config path: %w", err)
	}

	var files []string
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to scan config directory: %w", err)
		}
		sort.Strings(files)
	} else {
		files = []string{path}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found under %q", path)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"deployment": cty.ObjectVal(map[string]cty.Value{
				"mode": cty.StringVal(deploymentMode),
				"host": cty.StringVal(deploymentHost),
			}),
		},
	}

	for _, file := range files {
		logger.Debug("Loading config file.", "path", file)
		hclFile, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root rootFile
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		if err := merge(model, &root); err != nil {
			return nil, fmt.Errorf("invalid config in %s: %w", file, err)
		}
	}

	logger.Debug("Configuration loaded.", "files", len(files))
	return model, nil
}

// merge overlays one decoded file onto the model.
func merge(model *Model, root *rootFile) error {
	if root.Feagi != nil {
		if root.Feagi.APIVersion != nil {
			model.Feagi.APIVersion = *root.Feagi.APIVersion
		}
		if root.Feagi.BurstFrequency != nil {
			if *root.Feagi.BurstFrequency <= 0 {
				return fmt.Errorf("burst_frequency must be positive")
			}
			model.Feagi.BurstFrequency = *root.Feagi.BurstFrequency
		}
	}

	if root.Agent != nil {
		if root.Agent.ID != nil {
			model.Agent.ID = *root.Agent.ID
		}
		if root.Agent.Type != nil {
			model.Agent.Type = *root.Agent.Type
		}
		if root.Agent.DataPort != nil {
			model.Agent.DataPort = *root.Agent.DataPort
		}
	}

	if root.Simulation != nil {
		if root.Simulation.StepRate != nil {
			if *root.Simulation.StepRate < 1 {
				return fmt.Errorf("step_rate must be at least 1")
			}
			model.Simulation.StepRate = *root.Simulation.StepRate
		}
		if root.Simulation.RuntimeSeconds != nil {
			model.Simulation.RuntimeSeconds = *root.Simulation.RuntimeSeconds
		}
		if root.Simulation.Keyframe != nil {
			model.Simulation.Keyframe = *root.Simulation.Keyframe
		}
		if root.Simulation.CapabilitiesPath != nil {
			model.Simulation.CapabilitiesPath = *root.Simulation.CapabilitiesPath
		}
	}

	for _, block := range root.Capabilities {
		if err := mergeCapability(model, block); err != nil {
			return err
		}
	}
	return nil
}

func mergeCapability(model *Model, block capabilityBlock) error {
	var groups map[string]capability.Group
	switch block.Direction {
	case "input":
		groups = model.Capabilities.Input
	case "output":
		groups = model.Capabilities.Output
	default:
		return fmt.Errorf("capability direction must be \"input\" or \"output\", got %q", block.Direction)
	}

	group, ok := groups[block.DeviceType]
	if !ok {
		group = capability.Group{"0": capability.Properties{}}
		groups[block.DeviceType] = group
	}

	props := group["0"]
	if block.MinValue != nil {
		props.MinValue = *block.MinValue
	}
	if block.MaxValue != nil {
		props.MaxValue = *block.MaxValue
	}
	if block.MaxPower != nil {
		props.MaxPower = *block.MaxPower
	}
	if block.RollingWindowLen != nil {
		if *block.RollingWindowLen < 1 {
			return fmt.Errorf("rolling_window_len must be at least 1")
		}
		props.RollingWindowLen = *block.RollingWindowLen
	}
	if block.Disabled != nil {
		props.Disabled = *block.Disabled
	}
	group["0"] = props
	return nil
}
