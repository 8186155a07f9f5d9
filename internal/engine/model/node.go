package model

import (
	"github.com/Faultbox/bifrost/pkg/gltf"
	"github.com/Faultbox/bifrost/pkg/math"
)

// NodeTransform returns a node's local transform converted to engine
// coordinates. Matrix nodes are conjugated by the X mirror; TRS nodes
// convert each component with the decoder's conventions.
func NodeTransform(n *gltf.Node) math.Mat4 {
	if n.Matrix != nil {
		m := math.Mat4(*n.Matrix)
		// Mirror along X on both sides: elements with exactly one
		// X-row or X-column index change sign.
		m[1] = -m[1]
		m[2] = -m[2]
		m[3] = -m[3]
		m[4] = -m[4]
		m[8] = -m[8]
		m[12] = -m[12]
		return m
	}

	t := math.Vec3{}
	if n.Translation != nil {
		t = FloatVec3(n.Translation[0], n.Translation[1], n.Translation[2])
	}
	r := math.QuatIdentity()
	if n.Rotation != nil {
		r = FloatQuat(n.Rotation[0], n.Rotation[1], n.Rotation[2], n.Rotation[3])
	}
	s := math.Vec3{X: 1, Y: 1, Z: 1}
	if n.ScaleVec != nil {
		s = math.Vec3{X: n.ScaleVec[0], Y: n.ScaleVec[1], Z: n.ScaleVec[2]}
	}
	return math.Compose(t, r, s)
}
