package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Parallel()

	model, err := NewLoader().Load(context.Background(), "", "playground", "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "v1", model.Feagi.APIVersion)
	assert.Equal(t, 0.1, model.Feagi.BurstFrequency)
	assert.Equal(t, 120, model.Simulation.StepRate)
	assert.Equal(t, 4, model.Simulation.Keyframe)
	assert.Contains(t, model.Capabilities.Output, capability.DeviceServo)
}

func TestLoad_SingleFileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "controller.hcl", `
feagi {
  burst_frequency = 0.05
}

agent {
  id   = "humanoid_01"
  type = "embodiment"
}

simulation {
  step_rate       = 60
  runtime_seconds = 30
}

capability "output" "servo" {
  min_value = -2
  max_value = 2
}
`)

	model, err := NewLoader().Load(context.Background(), path, "playground", "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, 0.05, model.Feagi.BurstFrequency)
	assert.Equal(t, "humanoid_01", model.Agent.ID)
	assert.Equal(t, 60, model.Simulation.StepRate)
	assert.Equal(t, 30.0, model.Simulation.RuntimeSeconds)

	servo := model.Capabilities.Output[capability.DeviceServo]["0"]
	assert.Equal(t, -2.0, servo.MinValue)
	assert.Equal(t, 2.0, servo.MaxValue)
}

func TestLoad_DirectoryMergesInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "10-base.hcl", `
simulation {
  step_rate = 30
}
`)
	writeConfig(t, dir, "20-override.hcl", `
simulation {
  step_rate = 240
}
`)

	model, err := NewLoader().Load(context.Background(), dir, "playground", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 240, model.Simulation.StepRate, "later file wins")
}

func TestLoad_DeploymentVariables(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "controller.hcl", `
agent {
  id = "agent-${deployment.mode}"
}
`)

	model, err := NewLoader().Load(context.Background(), path, "local", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "agent-local", model.Agent.ID)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "zero burst frequency",
			content: "feagi {\n  burst_frequency = 0\n}\n",
			wantErr: "burst_frequency",
		},
		{
			name:    "zero step rate",
			content: "simulation {\n  step_rate = 0\n}\n",
			wantErr: "step_rate",
		},
		{
			name:    "bad capability direction",
			content: "capability \"sideways\" \"servo\" {\n  max_value = 1\n}\n",
			wantErr: "direction",
		},
		{
			name:    "zero rolling window",
			content: "capability \"output\" \"motor\" {\n  rolling_window_len = 0\n}\n",
			wantErr: "rolling_window_len",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, t.TempDir(), "controller.hcl", tc.content)
			_, err := NewLoader().Load(context.Background(), path, "playground", "127.0.0.1")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_MalformedHCL(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "controller.hcl", "feagi {\n")
	_, err := NewLoader().Load(context.Background(), path, "playground", "127.0.0.1")
	require.Error(t, err)
}

func TestLoad_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"), "playground", "127.0.0.1")
	require.Error(t, err)
}
