package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Kakcalu13/webots-controllers/internal/app"
)

// Default FEAGI API ports per deployment mode.
const (
	DefaultPortContainerized = 30000
	DefaultPortLocal         = 3000
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("controller", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
FEAGI MuJoCo controller - bridges a MuJoCo scene to a FEAGI brain.

Usage:
  controller [options] [MODEL_XML_PATH]

Arguments:
  MODEL_XML_PATH
    Path to the MuJoCo MJCF scene file.

Options:
`)
		flagSet.PrintDefaults()
	}

	var magicLink string
	// All three spellings feed the same value; NX Studio hands out links
	// with either separator.
	flagSet.StringVar(&magicLink, "magic_link", "", "Magic link from NX Studio with the full connection settings.")
	flagSet.StringVar(&magicLink, "magic-link", "", "Magic link (dashed spelling).")
	flagSet.StringVar(&magicLink, "magic", "", "Magic link (shorthand).")

	modelFlag := flagSet.String("model_xml_path", "", "Path to the MJCF scene file. Defaults to ./humanoid.xml.")
	ipFlag := flagSet.String("ip", "127.0.0.1", "FEAGI host to connect to.")
	portFlag := flagSet.Int("port", 0, "FEAGI API port. Defaults to 30000, or 3000 with -local.")
	localFlag := flagSet.Bool("local", false, "Target a FEAGI instance running outside a container.")
	configFlag := flagSet.String("config", "", "Path to an HCL config file or directory.")
	transportFlag := flagSet.String("transport", "socketio", "Burst transport. Options: 'socketio' or 'websocket'.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFileFlag := flagSet.String("log-file", "", "Also write JSON logs to this file.")
	telemetryFlag := flagSet.String("telemetry-dsn", "", "ClickHouse DSN for burst telemetry. Empty is disabled.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *modelFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		path = "./humanoid.xml"
	}
	slog.Debug("Scene path determined.", "path", path)

	// An explicit -port always wins; otherwise the deployment mode picks
	// the default.
	port := *portFlag
	if port == 0 {
		if *localFlag {
			port = DefaultPortLocal
		} else {
			port = DefaultPortContainerized
		}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	transportKind := strings.ToLower(*transportFlag)
	if transportKind != "socketio" && transportKind != "websocket" {
		return nil, false, &ExitError{Code: 2, Message: "invalid transport: must be 'socketio' or 'websocket'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ModelXMLPath:    path,
		ConfigPath:      *configFlag,
		Host:            *ipFlag,
		Port:            port,
		MagicLink:       magicLink,
		Local:           *localFlag,
		Transport:       transportKind,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		LogFile:         *logFileFlag,
		HealthcheckPort: *healthPortFlag,
		TelemetryDSN:    *telemetryFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
