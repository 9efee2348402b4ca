package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Kakcalu13/webots-controllers/internal/ctxlog"
	"github.com/Kakcalu13/webots-controllers/internal/feagi"
	"github.com/Kakcalu13/webots-controllers/internal/pns"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
	"github.com/Kakcalu13/webots-controllers/internal/telemetry"
	"github.com/Kakcalu13/webots-controllers/internal/transport"
)

// Run executes the controller session: register with FEAGI, connect the
// burst channel, and drive the loop until the context ends.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if appConfig.HealthcheckPort > 0 {
		a.startHealthcheckServer(appConfig.HealthcheckPort)
	}

	host := appConfig.Host
	apiPort := appConfig.Port
	dataPort := a.config.Agent.DataPort
	if dataPort == 0 {
		dataPort = apiPort
	}

	if appConfig.MagicLink != "" {
		settings, err := feagi.ResolveMagicLink(ctx, appConfig.MagicLink, a.logger)
		if err != nil {
			return fmt.Errorf("failed to resolve magic link: %w", err)
		}
		host, apiPort, dataPort = mergeConnectionSettings(settings, host, apiPort, dataPort)
	}

	client := feagi.NewClient(fmt.Sprintf("http://%s:%d", host, apiPort), a.config.Feagi.APIVersion, a.logger)
	defer client.Close()

	if err := client.HealthCheck(ctx); err != nil {
		return err
	}

	session, err := client.Register(ctx, feagi.Registration{
		AgentType:         a.config.Agent.Type,
		AgentID:           a.config.Agent.ID,
		AgentDataPort:     dataPort,
		ControllerVersion: controllerVersion,
		Capabilities:      a.caps,
	})
	if err != nil {
		return err
	}
	defer func() {
		// Best effort; the run context may already be canceled.
		deregCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Deregister(deregCtx, session.AgentID); err != nil {
			a.logger.Warn("Agent deregistration failed.", "error", err)
		}
	}()

	period, err := client.StimulationPeriod(ctx)
	if err != nil {
		period = time.Duration(a.config.Feagi.BurstFrequency * float64(time.Second))
		a.logger.Warn("Falling back to configured burst frequency.",
			"period", period, "error", err)
	}

	channel, err := transport.Dial(ctx, transport.Config{
		Kind:    transport.Kind(appConfig.Transport),
		Host:    host,
		Port:    dataPort,
		AgentID: session.AgentID,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect burst channel: %w", err)
	}
	defer channel.Close()

	simulator, err := sim.NewKinematic(a.scene, sim.Options{
		StepRate: a.config.Simulation.StepRate,
		Keyframe: a.config.Simulation.Keyframe,
	})
	if err != nil {
		return fmt.Errorf("failed to build simulator: %w", err)
	}

	var sink *telemetry.Sink
	if appConfig.TelemetryDSN != "" {
		sink, err = telemetry.Open(appConfig.TelemetryDSN, a.logger)
		if err != nil {
			a.logger.Warn("Telemetry disabled.", "error", err)
		} else {
			sink.RunPusher(5*time.Second, 500)
			defer sink.Stop(true)
		}
	}

	gateway, err := pns.NewGateway(pns.Options{
		Channel:      channel,
		Registry:     a.registry,
		Capabilities: a.caps,
		State:        pns.NewRuntimeState(period),
		AgentID:      session.AgentID,
		Sink:         sink,
		Logger:       a.logger,
	})
	if err != nil {
		return err
	}

	runtime := time.Duration(a.config.Simulation.RuntimeSeconds * float64(time.Second))
	a.logger.Info("🧠 Controller session starting.",
		"feagi", fmt.Sprintf("%s:%d", host, apiPort),
		"data_port", dataPort,
		"transport", appConfig.Transport,
	)
	if err := gateway.Run(ctx, simulator, a.config.Simulation.StepRate, runtime); err != nil {
		return fmt.Errorf("session failed: %w", err)
	}

	a.logger.Info("🏁 Controller session finished.")
	a.logger.Debug("App.Run method finished.")
	return nil
}

// mergeConnectionSettings overlays resolved magic-link settings onto the
// flag-provided values. Fields the studio left unset keep the flag values.
func mergeConnectionSettings(settings *feagi.ConnectionSettings, host string, apiPort, dataPort int) (string, int, int) {
	if settings.Host != "" {
		host = settings.Host
	}
	if settings.APIPort > 0 {
		apiPort = settings.APIPort
	}
	if settings.DataPort > 0 {
		dataPort = settings.DataPort
	}
	return host, apiPort, dataPort
}
