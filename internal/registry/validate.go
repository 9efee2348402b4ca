package registry

import (
	"context"
	"fmt"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
	"github.com/Kakcalu13/webots-controllers/internal/ctxlog"
)

// Validate checks that every device group in the generated capability
// document has a codec: input groups need an encoder, output groups a
// decoder. A gap means the binary and the scene disagree, which is a
// startup error rather than something to discover mid-burst.
func (r *Registry) Validate(ctx context.Context, caps capability.Capabilities) error {
	logger := ctxlog.FromContext(ctx)

	for deviceType := range caps.Input {
		if _, ok := r.EncoderRegistry[deviceType]; !ok {
			return fmt.Errorf("no sensor encoder registered for device type %q", deviceType)
		}
	}
	for deviceType := range caps.Output {
		if _, ok := r.DecoderRegistry[deviceType]; !ok {
			return fmt.Errorf("no actuator decoder registered for device type %q", deviceType)
		}
	}

	logger.Debug("Registry validation passed.",
		"encoders", len(r.EncoderRegistry),
		"decoders", len(r.DecoderRegistry),
	)
	return nil
}
