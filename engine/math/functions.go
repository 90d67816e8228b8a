package math

import (
	m "math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	/** @brief An approximate representation of PI. */
	K_PI float32 = 3.14159265358979323846
	/** @brief A multiplier used to convert degrees to radians. */
	K_DEG2RAD_MULTIPLIER float32 = K_PI / 180.0
	/** @brief A multiplier used to convert radians to degrees. */
	K_RAD2DEG_MULTIPLIER float32 = 180.0 / K_PI
	/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
	K_FLOAT_EPSILON float32 = 1.192092896e-07
	/** @brief Threshold below which a clip or path length is treated as zero. */
	K_ZERO_TOLERANCE float32 = 1e-4
)

/**
 * Note that these are here in order to prevent having to import the
 * entire <math.h> everywhere.
 */
func Sin(x float32) float32 {
	return float32(m.Sin(float64(x)))
}

func Cos(x float32) float32 {
	return float32(m.Cos(float64(x)))
}

func Atan2(y, x float32) float32 {
	return float32(m.Atan2(float64(y), float64(x)))
}

func Sqrt(x float32) float32 {
	return float32(m.Sqrt(float64(x)))
}

func Abs(x float32) float32 {
	return float32(m.Abs(float64(x)))
}

func Mod(x, y float32) float32 {
	return float32(m.Mod(float64(x), float64(y)))
}

func Min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func Max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func Clamp(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// LerpVec2 linearly interpolates each component of a and b by t.
func LerpVec2(a, b mgl32.Vec2, t float32) mgl32.Vec2 {
	return mgl32.Vec2{Lerp(a[0], b[0], t), Lerp(a[1], b[1], t)}
}

// LerpDegrees interpolates between two angles in degrees along the
// shortest arc. Naive linear interpolation breaks across the +-180
// boundary; this never travels more than 180 degrees.
func LerpDegrees(a, b, t float32) float32 {
	delta := Mod(b-a, 360.0)
	if delta > 180.0 {
		delta -= 360.0
	} else if delta < -180.0 {
		delta += 360.0
	}
	return a + delta*t
}

// NormalizeDegrees wraps an angle into (-180, 180].
func NormalizeDegrees(deg float32) float32 {
	deg = Mod(deg, 360.0)
	if deg > 180.0 {
		deg -= 360.0
	} else if deg <= -180.0 {
		deg += 360.0
	}
	return deg
}
