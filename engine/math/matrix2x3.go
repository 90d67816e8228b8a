package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

/**
 * @brief A 2x3 affine transform, the upper two rows of a 3x3 matrix
 * whose last row is implicitly [0 0 1]:
 *
 *   | M00 M01 M02 |
 *   | M10 M11 M12 |
 *
 * M02/M12 carry the translation. Used for bone world transforms and
 * GPU skinning palette entries.
 */
type Matrix2x3 struct {
	M00, M01, M02 float32
	M10, M11, M12 float32
}

func NewMatrix2x3Identity() Matrix2x3 {
	return Matrix2x3{
		M00: 1, M01: 0, M02: 0,
		M10: 0, M11: 1, M12: 0,
	}
}

// NewMatrix2x3 builds an affine transform from a 2D TRS-with-shear
// decomposition. Rotation and shear are in degrees; the rotation of the
// Y basis vector is offset by 90 degrees plus the Y shear, matching the
// skeletal convention where shear skews each axis independently.
func NewMatrix2x3(position mgl32.Vec2, rotationInDegrees float32, scale mgl32.Vec2, shear mgl32.Vec2) Matrix2x3 {
	rotX := (rotationInDegrees + shear[0]) * K_DEG2RAD_MULTIPLIER
	rotY := (rotationInDegrees + 90.0 + shear[1]) * K_DEG2RAD_MULTIPLIER
	return Matrix2x3{
		M00: Cos(rotX) * scale[0],
		M01: Cos(rotY) * scale[1],
		M02: position[0],
		M10: Sin(rotX) * scale[0],
		M11: Sin(rotY) * scale[1],
		M12: position[1],
	}
}

// Mul composes two affine transforms: the result applies o first, then a.
func (a Matrix2x3) Mul(o Matrix2x3) Matrix2x3 {
	return Matrix2x3{
		M00: a.M00*o.M00 + a.M01*o.M10,
		M01: a.M00*o.M01 + a.M01*o.M11,
		M02: a.M00*o.M02 + a.M01*o.M12 + a.M02,
		M10: a.M10*o.M00 + a.M11*o.M10,
		M11: a.M10*o.M01 + a.M11*o.M11,
		M12: a.M10*o.M02 + a.M11*o.M12 + a.M12,
	}
}

// TransformPosition applies the full affine transform to a point.
func (a Matrix2x3) TransformPosition(v mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		a.M00*v[0] + a.M01*v[1] + a.M02,
		a.M10*v[0] + a.M11*v[1] + a.M12,
	}
}

// TransformDirection applies only the linear part of the transform.
func (a Matrix2x3) TransformDirection(v mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		a.M00*v[0] + a.M01*v[1],
		a.M10*v[0] + a.M11*v[1],
	}
}

func (a Matrix2x3) Translation() mgl32.Vec2 {
	return mgl32.Vec2{a.M02, a.M12}
}

func (a Matrix2x3) Determinant() float32 {
	return a.M00*a.M11 - a.M01*a.M10
}

// Inverse returns the inverse affine transform. A singular matrix
// (determinant near zero) returns identity rather than propagating
// Inf/NaN into the pose pipeline.
func (a Matrix2x3) Inverse() Matrix2x3 {
	det := a.Determinant()
	if Abs(det) < K_FLOAT_EPSILON {
		return NewMatrix2x3Identity()
	}
	invDet := 1.0 / det
	return Matrix2x3{
		M00: a.M11 * invDet,
		M01: -a.M01 * invDet,
		M02: (a.M01*a.M12 - a.M11*a.M02) * invDet,
		M10: -a.M10 * invDet,
		M11: a.M00 * invDet,
		M12: (a.M10*a.M02 - a.M00*a.M12) * invDet,
	}
}

// RotationInDegrees extracts the rotation of the X basis vector.
func (a Matrix2x3) RotationInDegrees() float32 {
	return Atan2(a.M10, a.M00) * K_RAD2DEG_MULTIPLIER
}

// Decompose splits the transform into translation, rotation (degrees),
// scale and a residual Y-axis shear (degrees). Recomposing with
// NewMatrix2x3 yields the original transform for non-degenerate input.
func (a Matrix2x3) Decompose() (position mgl32.Vec2, rotationInDegrees float32, scale mgl32.Vec2, shearY float32) {
	position = a.Translation()
	rotationInDegrees = a.RotationInDegrees()
	scale[0] = Sqrt(a.M00*a.M00 + a.M10*a.M10)
	scale[1] = Sqrt(a.M01*a.M01 + a.M11*a.M11)
	if a.Determinant() < 0 {
		scale[1] = -scale[1]
	}
	yAngle := Atan2(a.M11, a.M01) * K_RAD2DEG_MULTIPLIER
	if scale[1] < 0 {
		yAngle += 180.0
	}
	shearY = NormalizeDegrees(yAngle - 90.0 - rotationInDegrees)
	return
}
