package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/config"
	"github.com/Kakcalu13/webots-controllers/internal/ctxlog"
	"github.com/Kakcalu13/webots-controllers/internal/mjcf"
	"github.com/Kakcalu13/webots-controllers/internal/registry"
)

// controllerVersion is reported to FEAGI during registration.
const controllerVersion = "1.0.0"

// App encapsulates the controller's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	closeLog func() error
	registry *registry.Registry
	config   *config.Model
	scene    *mjcf.Document
	caps     capability.Capabilities
}

// NewApp is the constructor for the controller. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, appConfig *Config, loader *config.Loader, modules ...registry.Module) *App {
	logger, closeLog := newLogger(appConfig.LogLevel, appConfig.LogFormat, appConfig.LogFile, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel, err := loader.Load(ctx, appConfig.ConfigPath, appConfig.Mode(), appConfig.Host)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and merged into unified model.")

	scene, err := mjcf.ParseFile(appConfig.ModelXMLPath)
	if err != nil {
		panic(fmt.Errorf("failed to parse scene: %w", err))
	}
	logger.Info("Scene parsed.",
		"model", scene.ModelName,
		"actuators", len(scene.Actuators),
		"sensors", len(scene.Sensors),
	)

	caps, err := capability.Generate(scene, cfgModel.Capabilities)
	if err != nil {
		panic(fmt.Errorf("failed to generate capabilities: %w", err))
	}
	if path := cfgModel.Simulation.CapabilitiesPath; path != "" {
		if err := capability.WriteFile(path, caps); err != nil {
			logger.Warn("Failed to export capability document.", "path", path, "error", err)
		} else {
			logger.Debug("Capability document exported.", "path", path)
		}
	}

	// Create and populate the registry with device handlers.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules()
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All device modules registered.", "count", len(modules))

	// Validate that every capability group has a handler.
	if err := reg.Validate(ctx, caps); err != nil {
		// This is a programmer error (mismatch between code and scene), so
		// we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		closeLog: closeLog,
		registry: reg,
		config:   cfgModel,
		scene:    scene,
		caps:     caps,
	}
}

// Registry returns the application's registry. This is primarily for
// testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Capabilities returns the generated capability document. This is
// primarily for testing.
func (a *App) Capabilities() capability.Capabilities {
	return a.caps
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.closeLog()
}
