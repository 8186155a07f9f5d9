package model

import (
	"fmt"

	"github.com/Faultbox/bifrost/pkg/gltf"
	"github.com/Faultbox/bifrost/pkg/math"
	"github.com/Faultbox/bifrost/pkg/ragged"
)

// BuildMeshOrders walks the document's nodes and creates one MeshOrder
// per referenced mesh, in first-reference order. Every node referencing
// a mesh is registered as a recipient of that mesh's order. Callers own
// the returned orders and must Close each one.
func BuildMeshOrders(src AccessorSource, doc *gltf.Document, opts BuildOptions) ([]*MeshOrder, error) {
	var orders []*MeshOrder
	byMesh := make(map[int]*MeshOrder)

	for nodeIdx := range doc.Nodes {
		node := &doc.Nodes[nodeIdx]
		if node.Mesh == nil {
			continue
		}
		meshIdx := *node.Mesh
		if meshIdx < 0 || meshIdx >= len(doc.Meshes) {
			return nil, fmt.Errorf("%w: node %d references mesh %d of %d", ErrInvalidIndex, nodeIdx, meshIdx, len(doc.Meshes))
		}

		order, ok := byMesh[meshIdx]
		if !ok {
			order = NewMeshOrder(meshIdx, NewMeshGenerator(src, doc, meshIdx, opts))
			byMesh[meshIdx] = order
			orders = append(orders, order)
		}
		order.AddRecipient(nodeIdx)
	}
	return orders, nil
}

// BuildMesh assembles one document mesh directly, without recipient
// tracking. Convenience wrapper for tools.
func BuildMesh(src AccessorSource, doc *gltf.Document, meshIdx int, opts BuildOptions) ([]*Mesh, error) {
	gen := NewMeshGenerator(src, doc, meshIdx, opts)
	defer gen.Close()
	return gen.Generate()
}

// meshGenerator assembles the meshes for one document mesh. The
// collector variant is chosen at construction: single-primitive meshes
// bypass dedup grouping entirely.
type meshGenerator struct {
	src       AccessorSource
	doc       *gltf.Document
	mesh      int
	opts      BuildOptions
	collector PrimitiveCollector
}

// NewMeshGenerator creates a generator for document mesh index meshIdx.
func NewMeshGenerator(src AccessorSource, doc *gltf.Document, meshIdx int, opts BuildOptions) MeshGenerator {
	g := &meshGenerator{src: src, doc: doc, mesh: meshIdx, opts: opts}

	prims := doc.Meshes[meshIdx].Primitives
	if len(prims) == 1 {
		g.collector = NewSinglePrimitive(0, &prims[0])
	} else {
		set := &PrimitiveSet{}
		for i := range prims {
			set.Add(i, &prims[i])
		}
		g.collector = set
	}
	return g
}

// Generate assembles one Mesh per distinct vertex buffer group. A
// second call after the collector has been drained returns nil.
func (g *meshGenerator) Generate() ([]*Mesh, error) {
	if g.collector == nil {
		return nil, nil
	}

	order, prims, assignments := g.collector.BuildAndRelease()
	if len(prims) == 0 {
		return nil, nil
	}

	// Recover per-group member lists in submission order. With nil
	// assignments every submission got its own group.
	members := make([][]int, len(prims))
	if assignments == nil {
		for i := range prims {
			members[i] = []int{order[i]}
		}
	} else {
		for _, a := range assignments {
			members[a.SubMesh] = append(members[a.SubMesh], a.Primitive)
		}
	}

	srcMesh := &g.doc.Meshes[g.mesh]
	meshes := make([]*Mesh, len(prims))
	for gi, prim := range prims {
		name := srcMesh.Name
		if len(prims) > 1 {
			name = fmt.Sprintf("%s.%d", srcMesh.Name, gi)
		}
		m, err := g.buildGroup(name, prim, members[gi])
		if err != nil {
			return nil, fmt.Errorf("mesh %d group %d: %w", g.mesh, gi, err)
		}
		meshes[gi] = m
	}
	return meshes, nil
}

// Close releases the generator's references. Safe to call twice.
func (g *meshGenerator) Close() {
	g.collector = nil
	g.src = nil
	g.doc = nil
}

// buildGroup decodes one vertex buffer group and assembles its member
// primitives into sub-mesh index ranges.
func (g *meshGenerator) buildGroup(name string, prim *gltf.Primitive, members []int) (*Mesh, error) {
	if prim.ModeOrDefault() != gltf.ModeTriangles {
		return nil, fmt.Errorf("unsupported primitive mode %d (only triangles)", prim.ModeOrDefault())
	}

	vertices, err := g.buildVertices(prim)
	if err != nil {
		return nil, err
	}

	mesh := &Mesh{
		Name:     name,
		Vertices: vertices,
		Bounds:   computeBounds(vertices),
	}

	// Two-pass index assembly: counts are known from the accessor
	// descriptors, so one ragged buffer holds every sub-mesh range
	// without a temporary slice per member.
	srcPrims := g.doc.Meshes[g.mesh].Primitives
	offsets := make([]int, len(members)+1)
	for k, pi := range members {
		member := &srcPrims[pi]
		count := len(vertices)
		if member.Indices != nil {
			acc, err := g.src.Accessor(*member.Indices)
			if err != nil {
				return nil, err
			}
			count = acc.Count
		}
		if count%3 != 0 {
			return nil, fmt.Errorf("primitive %d: index count %d is not a multiple of 3", pi, count)
		}
		offsets[k+1] = offsets[k] + count
	}

	groups, err := ragged.New[uint32](offsets)
	if err != nil {
		return nil, err
	}

	mesh.SubMeshes = make([]SubMesh, len(members))
	for k, pi := range members {
		member := &srcPrims[pi]
		dst, err := groups.Group(k)
		if err != nil {
			return nil, err
		}

		if member.Indices != nil {
			if err := readIndicesInto(g.src, *member.Indices, dst); err != nil {
				return nil, err
			}
			// Decoded values must address the shared vertex buffer.
			for _, v := range dst {
				if v >= uint32(len(vertices)) {
					return nil, fmt.Errorf("%w: primitive %d index %d of %d vertices", ErrInvalidIndex, pi, v, len(vertices))
				}
			}
		} else {
			for i := range dst {
				dst[i] = uint32(i)
			}
		}
		if !g.opts.KeepWinding {
			for t := 0; t+2 < len(dst); t += 3 {
				tri := Triangle(dst[t], dst[t+1], dst[t+2])
				dst[t], dst[t+1], dst[t+2] = tri[0], tri[1], tri[2]
			}
		}

		material := -1
		if member.Material != nil {
			material = *member.Material
		}
		mesh.SubMeshes[k] = SubMesh{
			Material:   material,
			StartIndex: int32(offsets[k]),
			IndexCount: int32(offsets[k+1] - offsets[k]),
		}
	}
	mesh.Indices = groups.Flat()

	if _, ok := prim.Attributes[gltf.AttrNormal]; !ok && g.opts.GenerateNormals {
		generateNormals(mesh.Vertices, mesh.Indices)
	}
	return mesh, nil
}

// buildVertices decodes the primitive's vertex attributes.
func (g *meshGenerator) buildVertices(prim *gltf.Primitive) ([]Vertex, error) {
	posIdx, ok := prim.Attributes[gltf.AttrPosition]
	if !ok {
		return nil, fmt.Errorf("primitive has no %s attribute", gltf.AttrPosition)
	}
	positions, err := ReadPositions(g.src, posIdx)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	vertices := make([]Vertex, len(positions))
	for i, p := range positions {
		vertices[i].Position = p
		vertices[i].Color = math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	}

	if idx, ok := prim.Attributes[gltf.AttrNormal]; ok {
		normals, err := ReadNormals(g.src, idx)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		for i := range vertices {
			vertices[i].Normal = normals[i]
		}
	}
	if idx, ok := prim.Attributes[gltf.AttrTangent]; ok {
		tangents, err := ReadTangents(g.src, idx)
		if err != nil {
			return nil, fmt.Errorf("reading tangents: %w", err)
		}
		for i := range vertices {
			vertices[i].Tangent = tangents[i]
		}
	}
	if idx, ok := prim.Attributes[gltf.AttrTexCoord]; ok {
		uvs, err := ReadTexCoords(g.src, idx)
		if err != nil {
			return nil, fmt.Errorf("reading texcoords: %w", err)
		}
		for i := range vertices {
			vertices[i].TexCoord = uvs[i]
		}
	}
	if idx, ok := prim.Attributes[gltf.AttrColor]; ok {
		colors, err := ReadColors(g.src, idx)
		if err != nil {
			return nil, fmt.Errorf("reading colors: %w", err)
		}
		for i := range vertices {
			vertices[i].Color = colors[i]
		}
	}
	return vertices, nil
}

func computeBounds(vertices []Vertex) Bounds {
	b := Bounds{
		Min: math.Vec3{X: 1e10, Y: 1e10, Z: 1e10},
		Max: math.Vec3{X: -1e10, Y: -1e10, Z: -1e10},
	}
	for i := range vertices {
		b.Min = b.Min.Min(vertices[i].Position)
		b.Max = b.Max.Max(vertices[i].Position)
	}
	return b
}

// generateNormals accumulates triangle face normals onto each vertex
// and normalizes, producing smooth normals for meshes without a NORMAL
// attribute.
func generateNormals(vertices []Vertex, indices []uint32) {
	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		v0 := vertices[i0].Position
		e1 := vertices[i1].Position.Sub(v0)
		e2 := vertices[i2].Position.Sub(v0)
		n := e1.Cross(e2)
		// Degenerate triangles contribute nothing.
		if n.Length() < 1e-10 {
			continue
		}
		vertices[i0].Normal = vertices[i0].Normal.Add(n)
		vertices[i1].Normal = vertices[i1].Normal.Add(n)
		vertices[i2].Normal = vertices[i2].Normal.Add(n)
	}
	for i := range vertices {
		vertices[i].Normal = vertices[i].Normal.Normalize()
	}
}
