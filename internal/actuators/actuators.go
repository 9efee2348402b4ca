// Package actuators decodes motor-burst payloads from FEAGI into device
// commands and provides the rolling-window smoothing motors need.
package actuators

import (
	"fmt"
	"strconv"
)

// RollingWindow keeps the last N motor power values and exposes their
// average, smoothing out the bursty cortical output.
type RollingWindow struct {
	size   int
	values []float64
}

// NewRollingWindow creates a window of the given length. Lengths below 1
// are clamped to 1 so the average never divides by zero.
func NewRollingWindow(size int) *RollingWindow {
	if size < 1 {
		size = 1
	}
	return &RollingWindow{size: size}
}

// Add pushes a value and returns the current window average.
func (w *RollingWindow) Add(v float64) float64 {
	w.values = append(w.values, v)
	if len(w.values) > w.size {
		w.values = w.values[len(w.values)-w.size:]
	}
	var sum float64
	for _, v := range w.values {
		sum += v
	}
	return sum / float64(len(w.values))
}

// DecodeIndexed turns a device payload as it arrives off the wire (a map
// of device index to power value) into typed form. JSON decoding delivers
// map[string]any with float64 values; index keys may also arrive as
// numbers depending on the transport.
func DecodeIndexed(payload any) (map[int]float64, error) {
	if payload == nil {
		return nil, nil
	}

	out := map[int]float64{}
	switch m := payload.(type) {
	case map[string]any:
		for key, raw := range m {
			index, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("invalid device index %q", key)
			}
			value, err := toFloat(raw)
			if err != nil {
				return nil, fmt.Errorf("device %q: %w", key, err)
			}
			out[index] = value
		}
	case map[int]float64:
		for index, value := range m {
			out[index] = value
		}
	default:
		return nil, fmt.Errorf("unsupported payload type %T", payload)
	}
	return out, nil
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("non-numeric value of type %T", raw)
	}
}

// Clamp bounds a command value to [min, max]. A zero-width range passes
// the value through, matching actuators that declare no ctrlrange.
func Clamp(v, min, max float64) float64 {
	if min == 0 && max == 0 {
		return v
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
