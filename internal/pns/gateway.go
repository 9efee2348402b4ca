// Package pns is the peripheral-nervous-system gateway: it runs the
// fixed-rate burst loop, composing sensory bursts from the simulator and
// routing motor bursts back into it through the device registry.
package pns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/ctxlog"
	"github.com/Kakcalu13/webots-controllers/internal/registry"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
	"github.com/Kakcalu13/webots-controllers/internal/telemetry"
	"github.com/Kakcalu13/webots-controllers/internal/transport"
)

// Gateway wires the channel, the device registry and the simulator into
// one session.
type Gateway struct {
	channel  transport.Channel
	registry *registry.Registry
	caps     capability.Capabilities
	state    *RuntimeState
	agentID  string
	sink     *telemetry.Sink // nil when telemetry is disabled
	logger   *slog.Logger
}

// Options configures a Gateway.
type Options struct {
	Channel      transport.Channel
	Registry     *registry.Registry
	Capabilities capability.Capabilities
	State        *RuntimeState
	AgentID      string
	Sink         *telemetry.Sink
	Logger       *slog.Logger
}

// NewGateway validates and assembles a gateway.
func NewGateway(opts Options) (*Gateway, error) {
	if opts.Channel == nil {
		return nil, fmt.Errorf("gateway requires a channel")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("gateway requires a device registry")
	}
	if opts.State == nil {
		return nil, fmt.Errorf("gateway requires runtime state")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		channel:  opts.Channel,
		registry: opts.Registry,
		caps:     opts.Capabilities,
		state:    opts.State,
		agentID:  opts.AgentID,
		sink:     opts.Sink,
		logger:   logger.With("component", "pns"),
	}, nil
}

// Run drives the session until ctx is canceled, the runtime limit
// expires, or the queue closes. stepRate is the simulation step frequency
// in Hz; runtime of zero means unlimited.
func (g *Gateway) Run(ctx context.Context, simulator sim.Simulator, stepRate int, runtime time.Duration) error {
	if simulator == nil {
		return fmt.Errorf("gateway requires a simulator")
	}
	if stepRate < 1 {
		stepRate = 120
	}
	if runtime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runtime)
		defer cancel()
	}
	ctx = ctxlog.WithLogger(ctx, g.logger)

	stepTicker := time.NewTicker(time.Second / time.Duration(stepRate))
	defer stepTicker.Stop()

	burstTicker := time.NewTicker(g.state.StimulationPeriod())
	defer burstTicker.Stop()

	g.logger.Info("Burst loop started.",
		"step_rate", stepRate,
		"stimulation_period", g.state.StimulationPeriod(),
	)

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("Burst loop finished.", "bursts", g.state.BurstCount())
			return nil

		case <-stepTicker.C:
			if err := simulator.Step(); err != nil {
				return fmt.Errorf("simulation step failed: %w", err)
			}

		case payload, ok := <-g.channel.Receive():
			if !ok {
				return fmt.Errorf("messaging queue closed")
			}
			if g.handleMotorBurst(ctx, payload, simulator) {
				burstTicker.Reset(g.state.StimulationPeriod())
			}

		case <-burstTicker.C:
			g.publishSensoryBurst(ctx, simulator)
		}
	}
}

// handleMotorBurst routes one inbound payload. Reports whether the
// stimulation period changed.
func (g *Gateway) handleMotorBurst(ctx context.Context, payload []byte, simulator sim.Simulator) bool {
	started := time.Now()

	var msg MotorMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		g.logger.Warn("Dropping undecodable motor burst.", "error", err)
		return false
	}

	periodChanged := false
	if msg.BurstFrequency > 0 {
		period := time.Duration(msg.BurstFrequency * float64(time.Second))
		if g.state.SetStimulationPeriod(period) {
			g.logger.Info("Stimulation period updated by FEAGI.", "period", period)
			periodChanged = true
		}
	}

	apply := func(cmd sim.Command) error {
		err := simulator.Apply(cmd)
		if errors.Is(err, sim.ErrOutOfRange) {
			// Commands beyond the scene's control count are dropped.
			g.logger.Debug("Dropping out-of-range command.", "index", cmd.Index)
			return nil
		}
		return err
	}

	applied := 0
	for deviceType, devicePayload := range msg.Data.MotorData {
		decoder, ok := g.registry.DecoderRegistry[deviceType]
		if !ok {
			g.logger.Warn("No decoder for inbound device type.", "deviceType", deviceType)
			continue
		}
		devices := g.caps.Output[deviceType]
		if err := decoder.Fn(ctx, devices, devicePayload, apply); err != nil {
			g.logger.Warn("Motor payload rejected.", "deviceType", deviceType, "error", err)
			continue
		}
		applied++
	}

	g.record(telemetry.Row{
		RecordedAt:  started,
		Burst:       g.state.BurstCount(),
		Direction:   "motor",
		DeviceCount: applied,
		Latency:     time.Since(started),
	})
	return periodChanged
}

// publishSensoryBurst composes and sends one sensory message. The
// outbound document is rebuilt from scratch every burst, so nothing leaks
// from one burst into the next.
func (g *Gateway) publishSensoryBurst(ctx context.Context, simulator sim.Simulator) {
	started := time.Now()
	snapshot := simulator.Snapshot()

	data := map[string]map[string]any{}
	for _, deviceType := range sortedKeys(g.caps.Input) {
		encoder, ok := g.registry.EncoderRegistry[deviceType]
		if !ok {
			// Validate() runs at startup, so this is unreachable unless the
			// capability document changed mid-session.
			g.logger.Warn("No encoder for device type.", "deviceType", deviceType)
			continue
		}
		entries, err := encoder.Fn(ctx, g.caps.Input[deviceType], &snapshot)
		if err != nil {
			g.logger.Warn("Sensor encoding failed.", "deviceType", deviceType, "error", err)
			continue
		}
		if len(entries) > 0 {
			data[deviceType] = entries
		}
	}

	// Joint positions ride along as servo_position, derived from the
	// output servo group.
	if servos, ok := g.caps.Output[capability.DeviceServo]; ok {
		if encoder, ok := g.registry.EncoderRegistry["servo_position"]; ok {
			entries, err := encoder.Fn(ctx, servos, &snapshot)
			if err != nil {
				g.logger.Warn("Sensor encoding failed.", "deviceType", "servo_position", "error", err)
			} else if len(entries) > 0 {
				data["servo_position"] = entries
			}
		}
	}

	msg := SensoryMessage{
		Timestamp: float64(started.UnixNano()) / float64(time.Second),
		Burst:     g.state.NextBurst(),
		AgentID:   g.agentID,
		Data:      SensoryData{SensoryData: data},
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		g.logger.Error("Failed to encode sensory burst.", "error", err)
		return
	}
	if err := g.channel.Send(ctx, payload); err != nil {
		g.logger.Warn("Failed to send sensory burst.", "error", err)
		return
	}

	g.record(telemetry.Row{
		RecordedAt:  started,
		Burst:       msg.Burst,
		Direction:   "sensory",
		DeviceCount: len(data),
		Latency:     time.Since(started),
	})
}

func (g *Gateway) record(row telemetry.Row) {
	if g.sink != nil {
		g.sink.Record(row)
	}
}

func sortedKeys(groups map[string]capability.Group) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
