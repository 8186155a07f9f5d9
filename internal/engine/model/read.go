package model

import (
	"encoding/binary"
	"fmt"
	gomath "math"

	"github.com/Faultbox/bifrost/pkg/gltf"
	"github.com/Faultbox/bifrost/pkg/math"
)

// Attribute readers. Each pulls one accessor's elements through an
// AccessorSource, applies sparse overrides, and decodes into engine
// types. The byte views handed to the decode closures are borrowed and
// only valid inside the enclosing call.

// forEachElement visits every element of accessor idx, then re-visits
// the elements replaced by sparse overrides. fn receives the element
// index and a borrowed byte view of exactly ElementSize bytes.
func forEachElement(src AccessorSource, idx int, fn func(i int, b []byte)) error {
	acc, data, stride, err := src.AccessorBytes(idx)
	if err != nil {
		return err
	}

	size := acc.ElementSize()
	for i := 0; i < acc.Count; i++ {
		fn(i, data[i*stride:i*stride+size])
	}

	if sp := acc.Sparse; sp != nil {
		idxBytes, err := src.SparseIndices(acc)
		if err != nil {
			return err
		}
		valBytes, err := src.SparseValues(acc)
		if err != nil {
			return err
		}
		isize := sp.Indices.ComponentType.Size()
		for k := 0; k < sp.Count; k++ {
			target, err := readUint(idxBytes, k*isize, sp.Indices.ComponentType)
			if err != nil {
				return err
			}
			if int(target) >= acc.Count {
				return fmt.Errorf("%w: sparse override index %d of %d", ErrInvalidIndex, target, acc.Count)
			}
			fn(int(target), valBytes[k*size:(k+1)*size])
		}
	}
	return nil
}

func readUint(b []byte, off int, c gltf.ComponentType) (uint32, error) {
	switch c {
	case gltf.ComponentUint8:
		return uint32(b[off]), nil
	case gltf.ComponentUint16:
		return uint32(binary.LittleEndian.Uint16(b[off:])), nil
	case gltf.ComponentUint32:
		return binary.LittleEndian.Uint32(b[off:]), nil
	default:
		return 0, fmt.Errorf("model: component type %s is not an index type", c)
	}
}

func f32(b []byte, off int) float32 {
	return gomath.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func u16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}

func i16(b []byte, off int) int16 {
	return int16(binary.LittleEndian.Uint16(b[off:]))
}

// ReadPositions reads a VEC3 position accessor into engine coordinates.
func ReadPositions(src AccessorSource, idx int) ([]math.Vec3, error) {
	acc, err := src.Accessor(idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.ElementVec3 {
		return nil, fmt.Errorf("model: position accessor %d is %s, expected VEC3", idx, acc.Type)
	}

	var dec func(b []byte) math.Vec3
	switch {
	case acc.ComponentType == gltf.ComponentFloat:
		dec = func(b []byte) math.Vec3 { return FloatVec3(f32(b, 0), f32(b, 4), f32(b, 8)) }
	case acc.ComponentType == gltf.ComponentInt8 && acc.Normalized:
		dec = func(b []byte) math.Vec3 { return ByteVec3Norm(int8(b[0]), int8(b[1]), int8(b[2])) }
	case acc.ComponentType == gltf.ComponentInt8:
		dec = func(b []byte) math.Vec3 { return ByteVec3(int8(b[0]), int8(b[1]), int8(b[2])) }
	case acc.ComponentType == gltf.ComponentUint16 && acc.Normalized:
		dec = func(b []byte) math.Vec3 { return UshortVec3Norm(u16(b, 0), u16(b, 2), u16(b, 4)) }
	case acc.ComponentType == gltf.ComponentUint16:
		dec = func(b []byte) math.Vec3 { return UshortVec3(u16(b, 0), u16(b, 2), u16(b, 4)) }
	default:
		return nil, fmt.Errorf("model: unsupported position encoding %s (normalized=%v)", acc.ComponentType, acc.Normalized)
	}

	out := make([]math.Vec3, acc.Count)
	err = forEachElement(src, idx, func(i int, b []byte) { out[i] = dec(b) })
	return out, err
}

// ReadNormals reads a VEC3 normal accessor into unit vectors in engine
// coordinates.
func ReadNormals(src AccessorSource, idx int) ([]math.Vec3, error) {
	acc, err := src.Accessor(idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.ElementVec3 {
		return nil, fmt.Errorf("model: normal accessor %d is %s, expected VEC3", idx, acc.Type)
	}

	var dec func(b []byte) math.Vec3
	switch {
	case acc.ComponentType == gltf.ComponentFloat:
		dec = func(b []byte) math.Vec3 { return FloatVec3(f32(b, 0), f32(b, 4), f32(b, 8)) }
	case acc.ComponentType == gltf.ComponentInt8 && acc.Normalized:
		dec = func(b []byte) math.Vec3 { return ByteVec3Unit(int8(b[0]), int8(b[1]), int8(b[2])) }
	default:
		return nil, fmt.Errorf("model: unsupported normal encoding %s (normalized=%v)", acc.ComponentType, acc.Normalized)
	}

	out := make([]math.Vec3, acc.Count)
	err = forEachElement(src, idx, func(i int, b []byte) { out[i] = dec(b) })
	return out, err
}

// ReadTangents reads a VEC4 tangent accessor into engine coordinates.
func ReadTangents(src AccessorSource, idx int) ([]math.Vec4, error) {
	acc, err := src.Accessor(idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.ElementVec4 {
		return nil, fmt.Errorf("model: tangent accessor %d is %s, expected VEC4", idx, acc.Type)
	}

	var dec func(b []byte) math.Vec4
	switch {
	case acc.ComponentType == gltf.ComponentFloat:
		dec = func(b []byte) math.Vec4 { return FloatTangent(f32(b, 0), f32(b, 4), f32(b, 8), f32(b, 12)) }
	case acc.ComponentType == gltf.ComponentInt8 && acc.Normalized:
		dec = func(b []byte) math.Vec4 {
			v := ByteVec3Norm(int8(b[0]), int8(b[1]), int8(b[2]))
			w := -max(float32(int8(b[3]))/127, -1)
			return math.Vec4{X: v.X, Y: v.Y, Z: v.Z, W: w}
		}
	default:
		return nil, fmt.Errorf("model: unsupported tangent encoding %s (normalized=%v)", acc.ComponentType, acc.Normalized)
	}

	out := make([]math.Vec4, acc.Count)
	err = forEachElement(src, idx, func(i int, b []byte) { out[i] = dec(b) })
	return out, err
}

// ReadTexCoords reads a VEC2 texture coordinate accessor.
func ReadTexCoords(src AccessorSource, idx int) ([]math.Vec2, error) {
	acc, err := src.Accessor(idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.ElementVec2 {
		return nil, fmt.Errorf("model: texcoord accessor %d is %s, expected VEC2", idx, acc.Type)
	}

	var dec func(b []byte) math.Vec2
	switch {
	case acc.ComponentType == gltf.ComponentFloat:
		dec = func(b []byte) math.Vec2 { return math.Vec2{X: f32(b, 0), Y: f32(b, 4)} }
	case acc.ComponentType == gltf.ComponentUint8 && acc.Normalized:
		dec = func(b []byte) math.Vec2 { return math.Vec2{X: float32(b[0]) / 255, Y: float32(b[1]) / 255} }
	case acc.ComponentType == gltf.ComponentUint16 && acc.Normalized:
		dec = func(b []byte) math.Vec2 {
			return math.Vec2{X: float32(u16(b, 0)) / 65535, Y: float32(u16(b, 2)) / 65535}
		}
	default:
		return nil, fmt.Errorf("model: unsupported texcoord encoding %s (normalized=%v)", acc.ComponentType, acc.Normalized)
	}

	out := make([]math.Vec2, acc.Count)
	err = forEachElement(src, idx, func(i int, b []byte) { out[i] = dec(b) })
	return out, err
}

// ReadColors reads a VEC3 or VEC4 vertex color accessor. VEC3 colors
// get an opaque alpha.
func ReadColors(src AccessorSource, idx int) ([]math.Vec4, error) {
	acc, err := src.Accessor(idx)
	if err != nil {
		return nil, err
	}
	comps := acc.Type.Components()
	if acc.Type != gltf.ElementVec3 && acc.Type != gltf.ElementVec4 {
		return nil, fmt.Errorf("model: color accessor %d is %s, expected VEC3 or VEC4", idx, acc.Type)
	}

	var comp func(b []byte, k int) float32
	switch {
	case acc.ComponentType == gltf.ComponentFloat:
		comp = func(b []byte, k int) float32 { return f32(b, k*4) }
	case acc.ComponentType == gltf.ComponentUint8 && acc.Normalized:
		comp = func(b []byte, k int) float32 { return float32(b[k]) / 255 }
	case acc.ComponentType == gltf.ComponentUint16 && acc.Normalized:
		comp = func(b []byte, k int) float32 { return float32(u16(b, k*2)) / 65535 }
	default:
		return nil, fmt.Errorf("model: unsupported color encoding %s (normalized=%v)", acc.ComponentType, acc.Normalized)
	}

	out := make([]math.Vec4, acc.Count)
	err = forEachElement(src, idx, func(i int, b []byte) {
		c := math.Vec4{X: comp(b, 0), Y: comp(b, 1), Z: comp(b, 2), W: 1}
		if comps == 4 {
			c.W = comp(b, 3)
		}
		out[i] = c
	})
	return out, err
}

// ReadRotations reads a VEC4 rotation accessor into engine-convention
// quaternions.
func ReadRotations(src AccessorSource, idx int) ([]math.Quat, error) {
	acc, err := src.Accessor(idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.ElementVec4 {
		return nil, fmt.Errorf("model: rotation accessor %d is %s, expected VEC4", idx, acc.Type)
	}

	var dec func(b []byte) math.Quat
	switch {
	case acc.ComponentType == gltf.ComponentFloat:
		dec = func(b []byte) math.Quat { return FloatQuat(f32(b, 0), f32(b, 4), f32(b, 8), f32(b, 12)) }
	case acc.ComponentType == gltf.ComponentInt16 && acc.Normalized:
		dec = func(b []byte) math.Quat { return ShortQuat(i16(b, 0), i16(b, 2), i16(b, 4), i16(b, 6)) }
	default:
		return nil, fmt.Errorf("model: unsupported rotation encoding %s (normalized=%v)", acc.ComponentType, acc.Normalized)
	}

	out := make([]math.Quat, acc.Count)
	err = forEachElement(src, idx, func(i int, b []byte) { out[i] = dec(b) })
	return out, err
}

// readIndicesInto reads a SCALAR index accessor into dst, which must
// hold exactly acc.Count values. Winding conversion is applied by the
// caller.
func readIndicesInto(src AccessorSource, idx int, dst []uint32) error {
	acc, err := src.Accessor(idx)
	if err != nil {
		return err
	}
	if acc.Type != gltf.ElementScalar {
		return fmt.Errorf("model: index accessor %d is %s, expected SCALAR", idx, acc.Type)
	}
	if len(dst) != acc.Count {
		return fmt.Errorf("model: index destination holds %d, accessor has %d", len(dst), acc.Count)
	}

	var decodeErr error
	err = forEachElement(src, idx, func(i int, b []byte) {
		v, err := readUint(b, 0, acc.ComponentType)
		if err != nil && decodeErr == nil {
			decodeErr = err
		}
		dst[i] = v
	})
	if err != nil {
		return err
	}
	return decodeErr
}
