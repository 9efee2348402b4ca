package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/config"
	"github.com/Kakcalu13/webots-controllers/internal/feagi"
)

const testScene = `
<mujoco model="probe">
  <actuator>
    <position name="arm" ctrlrange="-1 1"/>
    <motor name="wheel" ctrlrange="-5 5"/>
  </actuator>
  <sensor>
    <framequat name="head_quat" objtype="site" objname="head"/>
    <distance name="bumper"/>
  </sensor>
</mujoco>
`

func writeScene(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.xml")
	require.NoError(t, os.WriteFile(path, []byte(testScene), 0o600))
	return path
}

func TestNewApp_BuildsRegistryAndCapabilities(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	capsPath := filepath.Join(tempDir, "caps.json")
	configPath := filepath.Join(tempDir, "controller.hcl")
	hcl := fmt.Sprintf(`
simulation {
  capabilities_path = %q
}
`, capsPath)
	require.NoError(t, os.WriteFile(configPath, []byte(hcl), 0o600))

	appConfig, err := NewConfig(Config{
		ModelXMLPath: writeScene(t),
		ConfigPath:   configPath,
		Host:         "127.0.0.1",
		Port:         30000,
		Transport:    "websocket",
		LogLevel:     "error",
	})
	require.NoError(t, err)

	// --- Act ---
	a := NewApp(&bytes.Buffer{}, appConfig, config.NewLoader())
	defer a.Close()

	// --- Assert ---
	caps := a.Capabilities()
	assert.Contains(t, caps.Output, capability.DeviceServo)
	assert.Contains(t, caps.Output, capability.DeviceMotor)
	assert.Contains(t, caps.Input, capability.DeviceGyro)
	assert.Contains(t, caps.Input, capability.DeviceProximity)

	_, err = os.Stat(capsPath)
	assert.NoError(t, err, "capability document should be exported")

	assert.NotEmpty(t, a.Registry().EncoderRegistry)
	assert.NotEmpty(t, a.Registry().DecoderRegistry)
}

func TestNewApp_PanicsOnBadScene(t *testing.T) {
	t.Parallel()

	scenePath := filepath.Join(t.TempDir(), "scene.xml")
	require.NoError(t, os.WriteFile(scenePath, []byte("<robot/>"), 0o600))

	appConfig, err := NewConfig(Config{
		ModelXMLPath: scenePath,
		Host:         "127.0.0.1",
		Port:         30000,
		Transport:    "websocket",
		LogLevel:     "error",
	})
	require.NoError(t, err)

	require.Panics(t, func() {
		NewApp(&bytes.Buffer{}, appConfig, config.NewLoader())
	})
}

func TestNewConfig_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{Host: "h", Port: 3000, Transport: "websocket"})
	require.Error(t, err, "scene path is required")

	_, err = NewConfig(Config{ModelXMLPath: "s.xml", Port: 3000, Transport: "websocket"})
	require.Error(t, err, "host is required")

	_, err = NewConfig(Config{ModelXMLPath: "s.xml", Host: "h", Port: 0, Transport: "websocket"})
	require.Error(t, err, "port must be valid")

	_, err = NewConfig(Config{ModelXMLPath: "s.xml", Host: "h", Port: 3000, Transport: "carrier-pigeon"})
	require.Error(t, err, "transport must be known")

	cfg, err := NewConfig(Config{ModelXMLPath: "s.xml", Host: "h", Port: 3000, Transport: "socketio", Local: true})
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, cfg.Mode())
}

func TestMergeConnectionSettings(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		settings     feagi.ConnectionSettings
		wantHost     string
		wantAPIPort  int
		wantDataPort int
	}{
		{
			name:         "full settings override everything",
			settings:     feagi.ConnectionSettings{Host: "10.0.0.5", APIPort: 8000, DataPort: 9000},
			wantHost:     "10.0.0.5",
			wantAPIPort:  8000,
			wantDataPort: 9000,
		},
		{
			name:         "omitted ports keep flag values",
			settings:     feagi.ConnectionSettings{Host: "10.0.0.5"},
			wantHost:     "10.0.0.5",
			wantAPIPort:  30000,
			wantDataPort: 30000,
		},
		{
			name:         "only data port specified",
			settings:     feagi.ConnectionSettings{Host: "10.0.0.5", DataPort: 9000},
			wantHost:     "10.0.0.5",
			wantAPIPort:  30000,
			wantDataPort: 9000,
		},
		{
			name:         "empty settings keep everything",
			settings:     feagi.ConnectionSettings{},
			wantHost:     "127.0.0.1",
			wantAPIPort:  30000,
			wantDataPort: 30000,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			host, apiPort, dataPort := mergeConnectionSettings(&tc.settings, "127.0.0.1", 30000, 30000)
			assert.Equal(t, tc.wantHost, host)
			assert.Equal(t, tc.wantAPIPort, apiPort)
			assert.Equal(t, tc.wantDataPort, dataPort)
		})
	}
}
