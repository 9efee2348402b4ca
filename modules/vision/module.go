// Package vision encodes camera frames into per-pixel change deltas via
// the retina processor.
package vision

import (
	"context"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/ctxlog"
	"github.com/Kakcalu13/webots-controllers/internal/registry"
	"github.com/Kakcalu13/webots-controllers/internal/retina"
	"github.com/Kakcalu13/webots-controllers/internal/sim"
)

// DefaultThreshold is the per-channel change threshold below which pixel
// updates are suppressed.
const DefaultThreshold = 10

// Module implements the registry.Module interface. It is stateful: the
// retina processor keeps the previously transmitted frame per camera.
type Module struct {
	processor *retina.Processor
}

// New creates the vision module with the default change threshold.
func New() *Module {
	return &Module{processor: retina.NewProcessor(DefaultThreshold)}
}

// encodeVision diffs the snapshot's frame and publishes the changed
// pixels, keyed by camera device id.
func (m *Module) encodeVision(ctx context.Context, devices capability.Group, st *sim.State) (map[string]any, error) {
	if st.Vision == nil {
		return nil, nil
	}
	logger := ctxlog.FromContext(ctx).With("device", capability.DeviceCamera)

	out := map[string]any{}
	for id, props := range devices {
		if props.Disabled {
			continue
		}
		deltas, full, err := m.processor.Process(id, *st.Vision)
		if err != nil {
			return nil, err
		}
		if len(deltas) == 0 {
			continue
		}
		if full {
			logger.Debug("Full frame resend.", "camera", id, "pixels", len(deltas))
		}
		out[id] = deltas
	}
	return out, nil
}

// Register registers the handler with the device registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEncoder(&registry.RegisteredEncoder{
		DeviceType: capability.DeviceCamera,
		Fn:         m.encodeVision,
	})
}
