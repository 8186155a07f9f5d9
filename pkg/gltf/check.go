package gltf

import (
	"errors"
	"fmt"
)

// ErrCheckFailed wraps all document validation failures.
var ErrCheckFailed = errors.New("glTF document check failed")

func checkErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCheckFailed, fmt.Sprintf(format, args...))
}

// Check validates cross-references inside the document: every index
// points at an existing entity and every accessor fits inside its
// buffer view. Mesh assembly assumes a checked document.
func (d *Document) Check() error {
	if d.Scene != nil && (*d.Scene < 0 || *d.Scene >= len(d.Scenes)) {
		return checkErr("scene index %d out of range", *d.Scene)
	}
	for i := range d.Nodes {
		if err := d.checkNode(i); err != nil {
			return err
		}
	}
	for i := range d.BufferViews {
		if err := d.checkBufferView(i); err != nil {
			return err
		}
	}
	for i := range d.Accessors {
		if err := d.checkAccessor(i); err != nil {
			return err
		}
	}
	for i := range d.Meshes {
		if err := d.checkMesh(i); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) checkNode(i int) error {
	n := &d.Nodes[i]
	if n.Mesh != nil && (*n.Mesh < 0 || *n.Mesh >= len(d.Meshes)) {
		return checkErr("node %d: mesh index %d out of range", i, *n.Mesh)
	}
	if n.Skin != nil && (*n.Skin < 0 || *n.Skin >= len(d.Skins)) {
		return checkErr("node %d: skin index %d out of range", i, *n.Skin)
	}
	for _, c := range n.Children {
		if c < 0 || c >= len(d.Nodes) {
			return checkErr("node %d: child index %d out of range", i, c)
		}
	}
	return nil
}

func (d *Document) checkBufferView(i int) error {
	v := &d.BufferViews[i]
	if v.Buffer < 0 || v.Buffer >= len(d.Buffers) {
		return checkErr("bufferView %d: buffer index %d out of range", i, v.Buffer)
	}
	if v.ByteOffset < 0 || v.ByteLength <= 0 {
		return checkErr("bufferView %d: invalid byte range (%d, %d)", i, v.ByteOffset, v.ByteLength)
	}
	if n := d.Buffers[v.Buffer].ByteLength; v.ByteOffset+v.ByteLength > n {
		return checkErr("bufferView %d: range exceeds buffer length %d", i, n)
	}
	return nil
}

func (d *Document) checkAccessor(i int) error {
	a := &d.Accessors[i]
	if a.ComponentType.Size() == 0 {
		return checkErr("accessor %d: unknown component type %d", i, a.ComponentType)
	}
	if a.Type.Components() == 0 {
		return checkErr("accessor %d: unknown element type %q", i, a.Type)
	}
	if a.Count < 1 {
		return checkErr("accessor %d: count %d", i, a.Count)
	}
	if a.BufferView != nil {
		bv := *a.BufferView
		if bv < 0 || bv >= len(d.BufferViews) {
			return checkErr("accessor %d: bufferView index %d out of range", i, bv)
		}
		view := &d.BufferViews[bv]
		stride := view.ByteStride
		if stride == 0 {
			stride = a.ElementSize()
		}
		need := a.ByteOffset + (a.Count-1)*stride + a.ElementSize()
		if need > view.ByteLength {
			return checkErr("accessor %d: needs %d bytes, view has %d", i, need, view.ByteLength)
		}
	}
	if s := a.Sparse; s != nil {
		if s.Count < 1 || s.Count > a.Count {
			return checkErr("accessor %d: sparse count %d of %d", i, s.Count, a.Count)
		}
		if s.Indices.BufferView < 0 || s.Indices.BufferView >= len(d.BufferViews) {
			return checkErr("accessor %d: sparse index view %d out of range", i, s.Indices.BufferView)
		}
		switch s.Indices.ComponentType {
		case ComponentUint8, ComponentUint16, ComponentUint32:
		default:
			return checkErr("accessor %d: sparse index component type %s", i, s.Indices.ComponentType)
		}
		if s.Values.BufferView < 0 || s.Values.BufferView >= len(d.BufferViews) {
			return checkErr("accessor %d: sparse value view %d out of range", i, s.Values.BufferView)
		}
	}
	return nil
}

func (d *Document) checkMesh(i int) error {
	m := &d.Meshes[i]
	if len(m.Primitives) == 0 {
		return checkErr("mesh %d: no primitives", i)
	}
	for j := range m.Primitives {
		p := &m.Primitives[j]
		for name, acc := range p.Attributes {
			if acc < 0 || acc >= len(d.Accessors) {
				return checkErr("mesh %d primitive %d: attribute %s accessor %d out of range", i, j, name, acc)
			}
		}
		if p.Indices != nil && (*p.Indices < 0 || *p.Indices >= len(d.Accessors)) {
			return checkErr("mesh %d primitive %d: index accessor %d out of range", i, j, *p.Indices)
		}
		if p.Material != nil && (*p.Material < 0 || *p.Material >= len(d.Materials)) {
			return checkErr("mesh %d primitive %d: material index %d out of range", i, j, *p.Material)
		}
		for k, target := range p.Targets {
			for name, acc := range target {
				if acc < 0 || acc >= len(d.Accessors) {
					return checkErr("mesh %d primitive %d target %d: attribute %s accessor %d out of range", i, j, k, name, acc)
				}
			}
		}
	}
	return nil
}
