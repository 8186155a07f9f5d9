package model

import (
	"github.com/Faultbox/bifrost/pkg/math"
)

// Compact attribute decoding. glTF stores geometry right-handed; the
// engine is left-handed Y-up, so positions and normals flip X, triangle
// winding swaps the last two indices, and rotations negate the Y and Z
// imaginary components. Signed encodings clamp with max(v, -1): two's
// complement has one extra negative step (-128 vs +127), so a plain
// divide could yield magnitude > 1.

// ByteVec3 converts a signed-byte vector to engine coordinates without
// normalization.
func ByteVec3(x, y, z int8) math.Vec3 {
	return math.Vec3{X: -float32(x), Y: float32(y), Z: float32(z)}
}

// ByteVec3Unit converts a normalized signed-byte vector to a unit
// vector in engine coordinates. The clamp and axis flip happen before
// the final renormalization so the result has unit length.
func ByteVec3Unit(x, y, z int8) math.Vec3 {
	return ByteVec3Norm(x, y, z).Normalize()
}

// ByteVec3Norm converts a normalized signed-byte vector to engine
// coordinates without restoring unit length. Used where magnitude is
// meaningful, e.g. tangent-space columns.
func ByteVec3Norm(x, y, z int8) math.Vec3 {
	return math.Vec3{
		X: -max(float32(x)/127, -1),
		Y: max(float32(y)/127, -1),
		Z: max(float32(z)/127, -1),
	}
}

// UshortVec3 converts an unsigned-short vector to engine coordinates
// without division.
func UshortVec3(x, y, z uint16) math.Vec3 {
	return math.Vec3{X: -float32(x), Y: float32(y), Z: float32(z)}
}

// UshortVec3Norm converts a normalized unsigned-short vector to engine
// coordinates.
func UshortVec3Norm(x, y, z uint16) math.Vec3 {
	return math.Vec3{X: -float32(x) / 65535, Y: float32(y) / 65535, Z: float32(z) / 65535}
}

// UshortTriangle converts one unsigned-short triangle to engine winding
// order. The handedness conversion mirrors geometry along X, which
// inverts winding; swapping the last two indices restores front faces.
func UshortTriangle(a, b, c uint16) [3]uint32 {
	return Triangle(uint32(a), uint32(b), uint32(c))
}

// Triangle reorders one triangle's indices for the engine winding.
func Triangle(a, b, c uint32) [3]uint32 {
	return [3]uint32{a, c, b}
}

// ShortQuat converts a normalized signed-short quaternion to the engine
// rotation convention. Unlike the position flip, the rotation
// conversion negates the Y and Z imaginary components and keeps X and W.
func ShortQuat(x, y, z, w int16) math.Quat {
	return math.Quat{
		X: max(float32(x)/32767, -1),
		Y: -max(float32(y)/32767, -1),
		Z: -max(float32(z)/32767, -1),
		W: max(float32(w)/32767, -1),
	}
}

// FloatVec3 converts a float vector to engine coordinates.
func FloatVec3(x, y, z float32) math.Vec3 {
	return math.Vec3{X: -x, Y: y, Z: z}
}

// FloatQuat converts a float quaternion to the engine rotation
// convention.
func FloatQuat(x, y, z, w float32) math.Quat {
	return math.Quat{X: x, Y: -y, Z: -z, W: w}
}

// FloatTangent converts a float tangent to engine coordinates. W
// carries the bitangent sign and flips together with the winding.
func FloatTangent(x, y, z, w float32) math.Vec4 {
	return math.Vec4{X: -x, Y: y, Z: z, W: -w}
}
