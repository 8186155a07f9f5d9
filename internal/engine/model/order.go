package model

// MeshGenerator produces assembled meshes for one logical document
// mesh. Generators are created per mesh, used once, and released
// through their owning MeshOrder.
type MeshGenerator interface {
	// Generate assembles one Mesh per distinct vertex buffer group.
	Generate() ([]*Mesh, error)

	// Close releases buffers held by the generator. Safe to call more
	// than once.
	Close()
}

// MeshOrder is a unit of work: one mesh generator plus the scene nodes
// that will receive the generated result. The order exclusively owns
// its generator and releases it exactly once, whether the order
// completes or is abandoned.
type MeshOrder struct {
	mesh       int
	gen        MeshGenerator
	recipients []int
	closed     bool
}

// NewMeshOrder creates an order for document mesh index mesh.
func NewMeshOrder(mesh int, gen MeshGenerator) *MeshOrder {
	return &MeshOrder{mesh: mesh, gen: gen}
}

// MeshIndex returns the document mesh index this order builds.
func (o *MeshOrder) MeshIndex() int {
	return o.mesh
}

// AddRecipient appends a scene node index that consumes the result.
func (o *MeshOrder) AddRecipient(node int) {
	o.recipients = append(o.recipients, node)
}

// Recipients returns the recipient node list in registration order.
// The returned slice is read-only.
func (o *MeshOrder) Recipients() []int {
	return o.recipients
}

// Generate runs the owned generator.
func (o *MeshOrder) Generate() ([]*Mesh, error) {
	return o.gen.Generate()
}

// Close releases the generator exactly once. Safe on an order without
// a generator.
func (o *MeshOrder) Close() {
	if o.closed {
		return
	}
	o.closed = true
	if o.gen != nil {
		o.gen.Close()
	}
}
