package pns

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/mjcf"
	"github.com/Kakcalu13/webots-controllers/internal/registry"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
	"github.com/Kakcalu13/webots-controllers/modules/gyro"
	"github.com/Kakcalu13/webots-controllers/modules/motor"
	"github.com/Kakcalu13/webots-controllers/modules/pressure"
	"github.com/Kakcalu13/webots-controllers/modules/proximity"
	"github.com/Kakcalu13/webots-controllers/modules/servo"
)

// fakeChannel is an in-memory transport.Channel for gateway tests.
type fakeChannel struct {
	mu     sync.Mutex
	sent   [][]byte
	sendCh chan []byte
	recv   chan []byte
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		sendCh: make(chan []byte, 64),
		recv:   make(chan []byte, 64),
	}
}

func (f *fakeChannel) Send(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	f.sent = append(f.sent, payload)
	f.mu.Unlock()
	select {
	case f.sendCh <- payload:
	default:
	}
	return nil
}

func (f *fakeChannel) Receive() <-chan []byte { return f.recv }
func (f *fakeChannel) Close() error           { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testScene() *mjcf.Document {
	return &mjcf.Document{
		ModelName: "rig",
		Actuators: []mjcf.Actuator{
			{Name: "arm", Type: "position", CtrlRange: [2]float64{-1, 1}},
			{Name: "wheel", Type: "motor", CtrlRange: [2]float64{-10, 10}},
		},
		Sensors: []mjcf.Sensor{
			{Name: "head_gyro_quat", Type: "framequat"},
			{Name: "bumper", Type: "distance"},
		},
	}
}

func testHarness(t *testing.T) (*Gateway, *fakeChannel, *sim.Kinematic, *RuntimeState) {
	t.Helper()

	doc := testScene()
	caps, err := capability.Generate(doc, capability.DefaultTemplate())
	require.NoError(t, err)

	reg := registry.New()
	for _, mod := range []registry.Module{&servo.Module{}, motor.New(), &gyro.Module{}, &proximity.Module{}, &pressure.Module{}} {
		mod.Register(reg)
	}
	require.NoError(t, reg.Validate(context.Background(), caps))

	simulator, err := sim.NewKinematic(doc, sim.Options{StepRate: 200})
	require.NoError(t, err)

	state := NewRuntimeState(10 * time.Millisecond)
	ch := newFakeChannel()

	g, err := NewGateway(Options{
		Channel:      ch,
		Registry:     reg,
		Capabilities: caps,
		State:        state,
		AgentID:      "test_agent",
		Logger:       testLogger(),
	})
	require.NoError(t, err)
	return g, ch, simulator, state
}

func runGateway(t *testing.T, g *Gateway, simulator sim.Simulator) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, simulator, 200, 0) }()
	return cancel, done
}

func waitSensory(t *testing.T, ch *fakeChannel) SensoryMessage {
	t.Helper()
	select {
	case payload := <-ch.sendCh:
		var msg SensoryMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sensory burst")
		return SensoryMessage{}
	}
}

func TestGateway_PublishesSensoryBursts(t *testing.T) {
	t.Parallel()

	g, ch, simulator, _ := testHarness(t)
	cancel, done := runGateway(t, g, simulator)
	defer func() { cancel(); <-done }()

	first := waitSensory(t, ch)
	second := waitSensory(t, ch)

	assert.Equal(t, "test_agent", first.AgentID)
	assert.Equal(t, first.Burst+1, second.Burst, "burst counter is monotonic")
	assert.Contains(t, first.Data.SensoryData, capability.DeviceGyro)
	assert.Contains(t, first.Data.SensoryData, capability.DeviceProximity)
	assert.Contains(t, first.Data.SensoryData, "servo_position")
}

func TestGateway_EachBurstIsRebuilt(t *testing.T) {
	t.Parallel()

	g, ch, simulator, _ := testHarness(t)
	cancel, done := runGateway(t, g, simulator)
	defer func() { cancel(); <-done }()

	first := waitSensory(t, ch)
	require.NoError(t, simulator.SetSensor("bumper", []float64{3.5}))
	// Drain until the new reading shows up; earlier bursts may have been
	// composed before the injection.
	deadline := time.After(2 * time.Second)
	for {
		msg := waitSensory(t, ch)
		prox := msg.Data.SensoryData[capability.DeviceProximity]
		if v, ok := prox["0"].(float64); ok && v == 3.5 {
			assert.NotEqual(t, first.Burst, msg.Burst)
			return
		}
		select {
		case <-deadline:
			t.Fatal("updated proximity reading never published")
		default:
		}
	}
}

func TestGateway_AppliesMotorBurst(t *testing.T) {
	t.Parallel()

	g, ch, simulator, _ := testHarness(t)
	cancel, done := runGateway(t, g, simulator)
	defer func() { cancel(); <-done }()

	ch.recv <- []byte(`{"data": {"motor_data": {"servo": {"0": 0.5}}}}`)

	require.Eventually(t, func() bool {
		st := simulator.Snapshot()
		return len(st.Positions) > 0 && st.Positions[0] == 0.5
	}, 2*time.Second, 5*time.Millisecond, "servo command should reach the joint")
}

func TestGateway_DropsOutOfRangeCommands(t *testing.T) {
	t.Parallel()

	g, ch, simulator, _ := testHarness(t)
	cancel, done := runGateway(t, g, simulator)
	defer func() { cancel(); <-done }()

	ch.recv <- []byte(`{"data": {"motor_data": {"servo": {"99": 1.0}}}}`)

	// The loop must survive and keep publishing.
	waitSensory(t, ch)
	waitSensory(t, ch)
}

func TestGateway_AdoptsNewStimulationPeriod(t *testing.T) {
	t.Parallel()

	g, ch, simulator, state := testHarness(t)
	cancel, done := runGateway(t, g, simulator)
	defer func() { cancel(); <-done }()

	ch.recv <- []byte(`{"burst_frequency": 0.002, "data": {"motor_data": {}}}`)

	require.Eventually(t, func() bool {
		return state.StimulationPeriod() == 2*time.Millisecond
	}, 2*time.Second, time.Millisecond)
}

func TestGateway_SurvivesGarbageInbound(t *testing.T) {
	t.Parallel()

	g, ch, simulator, _ := testHarness(t)
	cancel, done := runGateway(t, g, simulator)
	defer func() { cancel(); <-done }()

	ch.recv <- []byte(`not json at all`)
	ch.recv <- []byte(`{"data": {"motor_data": {"warp_drive": {"0": 1}}}}`)

	waitSensory(t, ch)
}

func TestGateway_QueueCloseEndsRun(t *testing.T) {
	t.Parallel()

	g, ch, simulator, _ := testHarness(t)
	_, done := runGateway(t, g, simulator)

	close(ch.recv)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "queue closed")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after queue close")
	}
}

func TestGateway_RuntimeLimit(t *testing.T) {
	t.Parallel()

	g, _, simulator, _ := testHarness(t)
	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background(), simulator, 200, 50*time.Millisecond) }()

	select {
	case err := <-done:
		require.NoError(t, err, "runtime expiry is a clean shutdown")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not honor the runtime limit")
	}
}

func TestNewGateway_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewGateway(Options{})
	require.Error(t, err)

	_, err = NewGateway(Options{Channel: newFakeChannel()})
	require.Error(t, err)
}

func TestRuntimeState(t *testing.T) {
	t.Parallel()

	s := NewRuntimeState(0)
	assert.Equal(t, 100*time.Millisecond, s.StimulationPeriod(), "non-positive seed falls back to default")

	assert.True(t, s.SetStimulationPeriod(50*time.Millisecond))
	assert.False(t, s.SetStimulationPeriod(50*time.Millisecond), "unchanged period reports false")
	assert.False(t, s.SetStimulationPeriod(-1), "negative period ignored")

	assert.Equal(t, uint64(1), s.NextBurst())
	assert.Equal(t, uint64(2), s.NextBurst())
	assert.Equal(t, uint64(2), s.BurstCount())
}
