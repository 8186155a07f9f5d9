// Package gltf provides parsing for glTF 2.0 model files, both the JSON
// document form and the binary (GLB) container.
package gltf

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Document parsing errors.
var (
	ErrInvalidDocument  = errors.New("invalid glTF document")
	ErrUnsupportedAsset = errors.New("unsupported glTF version: expected 2.x")
	ErrBufferUnresolved = errors.New("buffer data not resolved")
)

// ComponentType identifies the scalar type of accessor components.
type ComponentType int32

const (
	ComponentInt8   ComponentType = 5120
	ComponentUint8  ComponentType = 5121
	ComponentInt16  ComponentType = 5122
	ComponentUint16 ComponentType = 5123
	ComponentUint32 ComponentType = 5125
	ComponentFloat  ComponentType = 5126
)

// Size returns the component size in bytes, or 0 for unknown types.
func (c ComponentType) Size() int {
	switch c {
	case ComponentInt8, ComponentUint8:
		return 1
	case ComponentInt16, ComponentUint16:
		return 2
	case ComponentUint32, ComponentFloat:
		return 4
	default:
		return 0
	}
}

// String returns a human-readable component type name.
func (c ComponentType) String() string {
	switch c {
	case ComponentInt8:
		return "BYTE"
	case ComponentUint8:
		return "UNSIGNED_BYTE"
	case ComponentInt16:
		return "SHORT"
	case ComponentUint16:
		return "UNSIGNED_SHORT"
	case ComponentUint32:
		return "UNSIGNED_INT"
	case ComponentFloat:
		return "FLOAT"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(c))
	}
}

// ElementType identifies the arity of accessor elements.
type ElementType string

const (
	ElementScalar ElementType = "SCALAR"
	ElementVec2   ElementType = "VEC2"
	ElementVec3   ElementType = "VEC3"
	ElementVec4   ElementType = "VEC4"
	ElementMat2   ElementType = "MAT2"
	ElementMat3   ElementType = "MAT3"
	ElementMat4   ElementType = "MAT4"
)

// Components returns the number of components per element, or 0 for
// unknown types.
func (e ElementType) Components() int {
	switch e {
	case ElementScalar:
		return 1
	case ElementVec2:
		return 2
	case ElementVec3:
		return 3
	case ElementVec4:
		return 4
	case ElementMat2:
		return 4
	case ElementMat3:
		return 9
	case ElementMat4:
		return 16
	default:
		return 0
	}
}

// Primitive rendering modes.
const (
	ModePoints        = 0
	ModeLines         = 1
	ModeLineLoop      = 2
	ModeLineStrip     = 3
	ModeTriangles     = 4
	ModeTriangleStrip = 5
	ModeTriangleFan   = 6
)

// Standard vertex attribute names.
const (
	AttrPosition = "POSITION"
	AttrNormal   = "NORMAL"
	AttrTangent  = "TANGENT"
	AttrTexCoord = "TEXCOORD_0"
	AttrColor    = "COLOR_0"
	AttrJoints   = "JOINTS_0"
	AttrWeights  = "WEIGHTS_0"
)

// Document is a parsed glTF document. It is immutable after parsing;
// mesh assembly only reads it.
type Document struct {
	Asset       Asset        `json:"asset"`
	Scene       *int         `json:"scene,omitempty"`
	Scenes      []Scene      `json:"scenes,omitempty"`
	Nodes       []Node       `json:"nodes,omitempty"`
	Meshes      []Mesh       `json:"meshes,omitempty"`
	Accessors   []Accessor   `json:"accessors,omitempty"`
	BufferViews []BufferView `json:"bufferViews,omitempty"`
	Buffers     []Buffer     `json:"buffers,omitempty"`
	Materials   []Material   `json:"materials,omitempty"`
	Textures    []Texture    `json:"textures,omitempty"`
	Images      []Image      `json:"images,omitempty"`
	Samplers    []Sampler    `json:"samplers,omitempty"`
	Skins       []Skin       `json:"skins,omitempty"`
}

// Asset holds document metadata.
type Asset struct {
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
	Generator  string `json:"generator,omitempty"`
	Copyright  string `json:"copyright,omitempty"`
}

// Scene is a set of root nodes.
type Scene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// Node is a scene-graph node, optionally referencing a mesh.
type Node struct {
	Name        string       `json:"name,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Skin        *int         `json:"skin,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"` // x, y, z, w
	ScaleVec    *[3]float32  `json:"scale,omitempty"`
	Weights     []float32    `json:"weights,omitempty"`
}

// Mesh is a set of primitives sharing a name and morph weights.
type Mesh struct {
	Name       string      `json:"name,omitempty"`
	Primitives []Primitive `json:"primitives"`
	Weights    []float32   `json:"weights,omitempty"`
}

// Primitive describes one draw call worth of geometry: a set of vertex
// attribute accessors, an optional index accessor, and a material.
type Primitive struct {
	Attributes map[string]int   `json:"attributes"`
	Indices    *int             `json:"indices,omitempty"`
	Material   *int             `json:"material,omitempty"`
	Mode       *int             `json:"mode,omitempty"` // Default is ModeTriangles.
	Targets    []map[string]int `json:"targets,omitempty"`
}

// ModeOrDefault returns the primitive mode, defaulting to triangles.
func (p *Primitive) ModeOrDefault() int {
	if p.Mode == nil {
		return ModeTriangles
	}
	return *p.Mode
}

// Accessor describes a typed, strided view over buffer bytes.
type Accessor struct {
	Name          string        `json:"name,omitempty"`
	BufferView    *int          `json:"bufferView,omitempty"`
	ByteOffset    int           `json:"byteOffset,omitempty"`
	ComponentType ComponentType `json:"componentType"`
	Normalized    bool          `json:"normalized,omitempty"`
	Count         int           `json:"count"`
	Type          ElementType   `json:"type"`
	Max           []float32     `json:"max,omitempty"`
	Min           []float32     `json:"min,omitempty"`
	Sparse        *Sparse       `json:"sparse,omitempty"`
}

// ElementSize returns the tightly-packed size of one accessor element.
func (a *Accessor) ElementSize() int {
	return a.ComponentType.Size() * a.Type.Components()
}

// Sparse describes sparse accessor overrides: a list of element indices
// and the replacement values for those elements.
type Sparse struct {
	Count   int           `json:"count"`
	Indices SparseIndices `json:"indices"`
	Values  SparseValues  `json:"values"`
}

// SparseIndices locates the override element indices.
type SparseIndices struct {
	BufferView    int           `json:"bufferView"`
	ByteOffset    int           `json:"byteOffset,omitempty"`
	ComponentType ComponentType `json:"componentType"`
}

// SparseValues locates the override element values.
type SparseValues struct {
	BufferView int `json:"bufferView"`
	ByteOffset int `json:"byteOffset,omitempty"`
}

// BufferView is a byte range into a buffer. ByteStride of 0 means
// tightly packed.
type BufferView struct {
	Name       string `json:"name,omitempty"`
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"`
	ByteLength int    `json:"byteLength"`
	ByteStride int    `json:"byteStride,omitempty"`
	Target     int    `json:"target,omitempty"`
}

// Buffer is an external binary blob. URI is empty for the GLB-embedded
// buffer.
type Buffer struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

// Material carries the subset of material data the importer reports.
// Texture and shading import is handled elsewhere.
type Material struct {
	Name                 string                `json:"name,omitempty"`
	PBRMetallicRoughness *PBRMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
	AlphaMode            string                `json:"alphaMode,omitempty"`
	DoubleSided          bool                  `json:"doubleSided,omitempty"`
}

// PBRMetallicRoughness holds base PBR factors.
type PBRMetallicRoughness struct {
	BaseColorFactor *[4]float32 `json:"baseColorFactor,omitempty"`
	MetallicFactor  *float32    `json:"metallicFactor,omitempty"`
	RoughnessFactor *float32    `json:"roughnessFactor,omitempty"`
}

// Texture pairs an image with a sampler.
type Texture struct {
	Name    string `json:"name,omitempty"`
	Sampler *int   `json:"sampler,omitempty"`
	Source  *int   `json:"source,omitempty"`
}

// Image references image data by URI or buffer view.
type Image struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

// Sampler holds texture filtering and wrapping modes.
type Sampler struct {
	Name      string `json:"name,omitempty"`
	MagFilter int    `json:"magFilter,omitempty"`
	MinFilter int    `json:"minFilter,omitempty"`
	WrapS     int    `json:"wrapS,omitempty"`
	WrapT     int    `json:"wrapT,omitempty"`
}

// Skin describes skeletal binding data.
type Skin struct {
	Name                string `json:"name,omitempty"`
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
}

// ParseDocument parses a glTF JSON document from a byte slice.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(doc.Asset.Version) < 2 || doc.Asset.Version[:2] != "2." {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedAsset, doc.Asset.Version)
	}
	return &doc, nil
}
