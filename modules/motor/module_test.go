package motor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/registry"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
)

func TestDecodeMotor_SmoothsThroughRollingWindow(t *testing.T) {
	t.Parallel()

	m := New()
	devices := capability.Group{
		"0": {CustomName: "wheel", FeagiIndex: 0, RollingWindowLen: 2},
	}

	var last float64
	apply := func(cmd sim.Command) error {
		require.Equal(t, sim.CommandMotorPower, cmd.Kind)
		last = cmd.Value
		return nil
	}

	require.NoError(t, m.decodeMotor(context.Background(), devices, map[string]any{"0": 1.0}, apply))
	assert.Equal(t, 1.0, last)

	require.NoError(t, m.decodeMotor(context.Background(), devices, map[string]any{"0": 0.0}, apply))
	assert.Equal(t, 0.5, last, "window of 2 averages the last two powers")

	require.NoError(t, m.decodeMotor(context.Background(), devices, map[string]any{"0": 0.0}, apply))
	assert.Equal(t, 0.0, last)
}

func TestDecodeMotor_UnknownIndexDefaultsWindowToOne(t *testing.T) {
	t.Parallel()

	m := New()
	var last float64
	apply := func(cmd sim.Command) error {
		last = cmd.Value
		return nil
	}

	require.NoError(t, m.decodeMotor(context.Background(), capability.Group{}, map[string]any{"5": 0.8}, apply))
	assert.Equal(t, 0.8, last, "no capability entry means no smoothing")
}

func TestRegister(t *testing.T) {
	t.Parallel()

	r := registry.New()
	New().Register(r)
	assert.Contains(t, r.DecoderRegistry, capability.DeviceMotor)
}
