// Package sensors converts raw simulator readings into the value shapes
// FEAGI expects inside a sensory burst.
package sensors

import (
	"fmt"
	"math"
)

// PressureSlots is the number of contact-force slots published every
// burst. Unused slots carry zero vectors so the cortical mapping stays
// stable while contacts come and go.
const PressureSlots = 20

// QuaternionToEuler converts a w,x,y,z quaternion to roll, pitch, yaw in
// degrees. Pitch saturates at +-90 when the rotation hits gimbal lock.
func QuaternionToEuler(w, x, y, z float64) [3]float64 {
	// roll (x-axis rotation)
	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll := math.Atan2(sinrCosp, cosrCosp)

	// pitch (y-axis rotation)
	sinp := 2 * (w*y - z*x)
	var pitch float64
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	// yaw (z-axis rotation)
	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw := math.Atan2(sinyCosp, cosyCosp)

	return [3]float64{degrees(roll), degrees(pitch), degrees(yaw)}
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// EulerFromQuatReading converts a 4-element sensor reading (w,x,y,z) to
// Euler degrees.
func EulerFromQuatReading(reading []float64) ([3]float64, error) {
	if len(reading) != 4 {
		return [3]float64{}, fmt.Errorf("orientation reading must have 4 elements, got %d", len(reading))
	}
	return QuaternionToEuler(reading[0], reading[1], reading[2], reading[3]), nil
}

// Pressure packs contact-force vectors into the fixed slot map. Forces
// beyond the slot count are dropped.
func Pressure(forces [][3]float64) map[string][3]float64 {
	out := make(map[string][3]float64, PressureSlots)
	for i := 0; i < PressureSlots; i++ {
		if i < len(forces) {
			out[fmt.Sprintf("%d", i)] = forces[i]
		} else {
			out[fmt.Sprintf("%d", i)] = [3]float64{}
		}
	}
	return out
}
