// Package retina preprocesses camera frames before they enter a sensory
// burst: only pixels that changed beyond a threshold are transmitted, and
// the full frame is resent whenever the geometry changes.
package retina

import (
	"fmt"
)

// Frame is a flattened RGB image, len(Pixels) == Width*Height*3.
type Frame struct {
	Width  int
	Height int
	Pixels []uint8
}

// Validate checks the pixel buffer matches the declared geometry.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame geometry %dx%d", f.Width, f.Height)
	}
	if want := f.Width * f.Height * 3; len(f.Pixels) != want {
		return fmt.Errorf("frame buffer has %d bytes, want %d", len(f.Pixels), want)
	}
	return nil
}

// Delta is one changed pixel channel: its flat index and new value.
type Delta struct {
	Index int   `json:"index"`
	Value uint8 `json:"value"`
}

// Processor tracks the previously transmitted frame per camera and emits
// per-pixel deltas.
type Processor struct {
	threshold uint8
	previous  map[string]Frame
}

// NewProcessor builds a processor with the given change threshold.
func NewProcessor(threshold uint8) *Processor {
	return &Processor{
		threshold: threshold,
		previous:  map[string]Frame{},
	}
}

// Process diffs the frame against the last one seen for the camera id.
// The first frame for a camera, and any frame whose geometry differs from
// the previous one, is returned in full.
func (p *Processor) Process(cameraID string, frame Frame) ([]Delta, bool, error) {
	if err := frame.Validate(); err != nil {
		return nil, false, err
	}

	prev, seen := p.previous[cameraID]
	p.previous[cameraID] = cloneFrame(frame)

	if !seen || prev.Width != frame.Width || prev.Height != frame.Height {
		return fullFrame(frame), true, nil
	}

	var deltas []Delta
	for i, v := range frame.Pixels {
		if absDiff(v, prev.Pixels[i]) > p.threshold {
			deltas = append(deltas, Delta{Index: i, Value: v})
		}
	}
	return deltas, false, nil
}

// Reset forgets the previous frame for a camera, forcing a full resend.
func (p *Processor) Reset(cameraID string) {
	delete(p.previous, cameraID)
}

func fullFrame(frame Frame) []Delta {
	deltas := make([]Delta, 0, len(frame.Pixels))
	for i, v := range frame.Pixels {
		if v != 0 {
			deltas = append(deltas, Delta{Index: i, Value: v})
		}
	}
	return deltas
}

func cloneFrame(frame Frame) Frame {
	out := frame
	out.Pixels = make([]uint8, len(frame.Pixels))
	copy(out.Pixels, frame.Pixels)
	return out
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
