package app

import "errors"

// Deployment modes, selectable from the CLI.
const (
	ModeContainerized = "containerized"
	ModeLocal         = "local"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelXMLPath string // MJCF scene file
	ConfigPath   string // optional HCL config file or directory

	Host      string
	Port      int // FEAGI API port
	MagicLink string
	Local     bool
	Transport string // "socketio" or "websocket"

	LogFormat       string
	LogLevel        string
	LogFile         string
	HealthcheckPort int
	TelemetryDSN    string
}

// Mode returns the deployment mode implied by the Local flag.
func (c *Config) Mode() string {
	if c.Local {
		return ModeLocal
	}
	return ModeContainerized
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelXMLPath == "" {
		return nil, errors.New("ModelXMLPath is a required configuration field and cannot be empty")
	}
	if cfg.Host == "" {
		return nil, errors.New("Host is a required configuration field and cannot be empty")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, errors.New("Port must be within 1-65535")
	}
	if cfg.Transport != "socketio" && cfg.Transport != "websocket" {
		return nil, errors.New("Transport must be 'socketio' or 'websocket'")
	}

	return &cfg, nil
}
