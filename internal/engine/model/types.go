// Package model assembles engine mesh geometry from parsed glTF data:
// accessor reading, compact attribute decoding, primitive deduplication,
// and per-mesh build orders.
package model

import (
	"github.com/Faultbox/bifrost/pkg/math"
)

// Vertex is an engine mesh vertex. Positions and normals are in the
// engine's left-handed, Y-up convention.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	Tangent  math.Vec4
	TexCoord math.Vec2
	Color    math.Vec4
}

// SubMesh is a contiguous index range rendered with one material.
// Material is -1 when the primitive declared none.
type SubMesh struct {
	Material   int
	StartIndex int32
	IndexCount int32
}

// Mesh holds assembled geometry ready for GPU upload.
type Mesh struct {
	Name      string
	Vertices  []Vertex
	Indices   []uint32
	SubMeshes []SubMesh
	Bounds    Bounds
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// BuildOptions controls mesh assembly.
type BuildOptions struct {
	// GenerateNormals computes flat normals when a primitive has no
	// NORMAL attribute.
	GenerateNormals bool
	// KeepWinding disables the triangle winding flip that normally
	// accompanies the handedness conversion.
	KeepWinding bool
}

// SubMeshAssignment records which physical sub-mesh slot a logical
// primitive landed in after deduplication.
type SubMeshAssignment struct {
	Primitive int
	SubMesh   int
}
