package model

import (
	"github.com/Faultbox/bifrost/pkg/gltf"
)

// PrimitiveCollector accumulates a mesh's primitives and drains them
// once into build input. Implemented by PrimitiveSet and
// SinglePrimitive.
type PrimitiveCollector interface {
	// HasMorphTargets reports whether any collected primitive carries
	// morph targets. Calling it before any primitive has been
	// submitted is a programming error and panics.
	HasMorphTargets() bool

	// BuildAndRelease drains the collector: the original submission
	// indices in submission order, the distinct primitives (one per
	// vertex buffer group), and the sub-mesh assignment table, or nil
	// assignments when every primitive got its own slot. The collector
	// is empty afterwards; a second drain returns empty results.
	BuildAndRelease() (indices []int, prims []*gltf.Primitive, assignments []SubMeshAssignment)
}

// PrimitiveSet groups submitted primitives by structural equality of
// their vertex attribute accessor sets. Primitives referencing the
// exact same accessors share one physical vertex buffer; each keeps its
// own sub-mesh slot. Matching is a linear scan over distinct groups,
// which stays cheap because meshes rarely have more than a handful of
// distinct vertex buffer shapes.
type PrimitiveSet struct {
	order       []int
	groups      []primitiveGroup
	assignments []SubMeshAssignment
}

type primitiveGroup struct {
	prim    *gltf.Primitive
	members []int
}

// Add submits one primitive with its original index.
func (s *PrimitiveSet) Add(index int, prim *gltf.Primitive) {
	s.order = append(s.order, index)

	for gi := range s.groups {
		g := &s.groups[gi]
		if !sameAttributes(g.prim, prim) {
			continue
		}
		// First real merge: materialize assignments for everything
		// submitted so far. Until then the table stays nil, so the
		// common no-dedup case allocates nothing. Before the first
		// merge every group has exactly one member, in submission
		// order.
		if s.assignments == nil {
			s.assignments = make([]SubMeshAssignment, 0, len(s.order))
			for pgi := range s.groups {
				s.assignments = append(s.assignments, SubMeshAssignment{Primitive: s.groups[pgi].members[0], SubMesh: pgi})
			}
		}
		g.members = append(g.members, index)
		s.assignments = append(s.assignments, SubMeshAssignment{Primitive: index, SubMesh: gi})
		return
	}

	s.groups = append(s.groups, primitiveGroup{prim: prim, members: []int{index}})
	if s.assignments != nil {
		s.assignments = append(s.assignments, SubMeshAssignment{Primitive: index, SubMesh: len(s.groups) - 1})
	}
}

// HasMorphTargets reports whether any submitted primitive has morph
// targets. Panics when the set is empty.
func (s *PrimitiveSet) HasMorphTargets() bool {
	if len(s.groups) == 0 {
		panic("model: HasMorphTargets called on empty primitive set")
	}
	for i := range s.groups {
		if len(s.groups[i].prim.Targets) > 0 {
			return true
		}
	}
	return false
}

// BuildAndRelease drains the set. Safe to call again; later calls
// return empty results rather than stale data.
func (s *PrimitiveSet) BuildAndRelease() ([]int, []*gltf.Primitive, []SubMeshAssignment) {
	indices := s.order
	assignments := s.assignments
	var prims []*gltf.Primitive
	if len(s.groups) > 0 {
		prims = make([]*gltf.Primitive, len(s.groups))
		for i := range s.groups {
			prims[i] = s.groups[i].prim
		}
	}

	s.order = nil
	s.groups = nil
	s.assignments = nil
	return indices, prims, assignments
}

// SinglePrimitive is the collector for single-primitive meshes: there
// is nothing to deduplicate, so it always reports nil assignments.
type SinglePrimitive struct {
	index   int
	prim    *gltf.Primitive
	drained bool
}

// NewSinglePrimitive builds a collector for one primitive.
func NewSinglePrimitive(index int, prim *gltf.Primitive) *SinglePrimitive {
	return &SinglePrimitive{index: index, prim: prim}
}

// HasMorphTargets reports whether the primitive has morph targets.
func (s *SinglePrimitive) HasMorphTargets() bool {
	if s.prim == nil {
		panic("model: HasMorphTargets called on empty primitive set")
	}
	return len(s.prim.Targets) > 0
}

// BuildAndRelease drains the collector.
func (s *SinglePrimitive) BuildAndRelease() ([]int, []*gltf.Primitive, []SubMeshAssignment) {
	if s.drained {
		return nil, nil, nil
	}
	s.drained = true
	return []int{s.index}, []*gltf.Primitive{s.prim}, nil
}

// sameAttributes reports structural equality of two primitives' vertex
// attribute accessor sets: same attribute names bound to the same
// accessor indices. Materials are deliberately ignored; they select
// sub-mesh state, not vertex data.
func sameAttributes(a, b *gltf.Primitive) bool {
	if len(a.Attributes) != len(b.Attributes) {
		return false
	}
	for name, acc := range a.Attributes {
		other, ok := b.Attributes[name]
		if !ok || other != acc {
			return false
		}
	}
	return true
}
