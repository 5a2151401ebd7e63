package heading

import (
	"math"
)

// Compute converts a level magnetometer reading to a compass heading in
// degrees, 0..360, measured clockwise from magnetic north (+X toward +Y).
// declinationDeg corrects magnetic north to true north; pass 0 to stay
// magnetic.
//
// This assumes the sensor is level. Tilt compensation needs an
// accelerometer, which this pipeline does not carry.
func Compute(x, y float64, declinationDeg float64) float64 {
	deg := math.Atan2(y, x) * 180.0 / math.Pi
	return Normalize(deg + declinationDeg)
}

// Norm computes the magnitude of the magnetic field vector.
func Norm(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

// Normalize wraps an angle in degrees into [0, 360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
