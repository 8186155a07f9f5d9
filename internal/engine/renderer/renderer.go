// Package renderer provides OpenGL rendering for assembled meshes.
package renderer

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/Faultbox/bifrost/internal/engine/model"
	"github.com/Faultbox/bifrost/internal/engine/shader"
	"github.com/Faultbox/bifrost/internal/logger"
	"github.com/Faultbox/bifrost/pkg/gltf"
	"github.com/Faultbox/bifrost/pkg/math"
	"github.com/go-gl/gl/v4.1-core/gl"
)

const vertexShaderSource = `#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec4 aTangent;
layout (location = 3) in vec4 aColor;
layout (location = 4) in vec2 aTexCoord;

uniform mat4 uProj;
uniform mat4 uView;
uniform mat4 uModel;

out vec3 vNormal;
out vec4 vColor;

void main() {
	gl_Position = uProj * uView * uModel * vec4(aPos, 1.0);
	vNormal = mat3(uModel) * aNormal;
	vColor = aColor;
}
`

const fragmentShaderSource = `#version 410 core

in vec3 vNormal;
in vec4 vColor;

uniform vec3 uLightDir;
uniform vec4 uBaseColor;

out vec4 FragColor;

void main() {
	vec3 n = normalize(vNormal);
	float diffuse = max(dot(n, -uLightDir), 0.0);
	vec3 lit = (0.25 + 0.75 * diffuse) * vColor.rgb * uBaseColor.rgb;
	FragColor = vec4(lit, vColor.a * uBaseColor.a);
}
`

// vertexStride is the byte size of one model.Vertex on the GPU:
// position + normal + tangent + color + texcoord, all float32.
const vertexStride = int32(unsafe.Sizeof(model.Vertex{}))

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// GPUMesh is a mesh uploaded to the GPU, ready to draw.
type GPUMesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	subMeshes  []model.SubMesh
	indexCount int32
}

// Renderer draws assembled meshes with a simple lit shader.
type Renderer struct {
	config  Config
	program uint32

	uProj      int32
	uView      int32
	uModel     int32
	uLightDir  int32
	uBaseColor int32

	meshes []*GPUMesh
}

// New creates a renderer.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{config: cfg}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	program, err := shader.CompileProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	r.program = program

	r.uProj = shader.GetUniform(program, "uProj")
	r.uView = shader.GetUniform(program, "uView")
	r.uModel = shader.GetUniform(program, "uModel")
	r.uLightDir = shader.GetUniform(program, "uLightDir")
	r.uBaseColor = shader.GetUniform(program, "uBaseColor")

	return r, nil
}

// Close releases all GPU resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	for _, m := range r.meshes {
		m.release()
	}
	r.meshes = nil
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Upload copies an assembled mesh to the GPU. The renderer owns the
// returned GPUMesh and releases it on Close.
func (r *Renderer) Upload(mesh *model.Mesh) (*GPUMesh, error) {
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return nil, fmt.Errorf("mesh %q has no geometry", mesh.Name)
	}

	g := &GPUMesh{
		subMeshes:  mesh.SubMeshes,
		indexCount: int32(len(mesh.Indices)),
	}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*int(vertexStride), unsafe.Pointer(&mesh.Vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, unsafe.Pointer(&mesh.Indices[0]), gl.STATIC_DRAW)

	// Attribute layout mirrors the model.Vertex field order.
	var offset uintptr
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, vertexStride, unsafe.Pointer(offset))
	gl.EnableVertexAttribArray(0)
	offset += 3 * 4
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, vertexStride, unsafe.Pointer(offset))
	gl.EnableVertexAttribArray(1)
	offset += 3 * 4
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, vertexStride, unsafe.Pointer(offset))
	gl.EnableVertexAttribArray(2)
	offset += 4 * 4
	gl.VertexAttribPointer(3, 4, gl.FLOAT, false, vertexStride, unsafe.Pointer(offset))
	gl.EnableVertexAttribArray(3)
	offset += 4 * 4
	gl.VertexAttribPointer(4, 2, gl.FLOAT, false, vertexStride, unsafe.Pointer(offset))
	gl.EnableVertexAttribArray(4)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

	r.meshes = append(r.meshes, g)
	logger.Debug("mesh uploaded",
		zap.String("name", mesh.Name),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("indices", len(mesh.Indices)),
	)
	return g, nil
}

func (g *GPUMesh) release() {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
	}
	if g.vbo != 0 {
		gl.DeleteBuffers(1, &g.vbo)
	}
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
	}
}

// Begin starts a new frame.
func (r *Renderer) Begin(proj, view math.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.uProj, 1, false, proj.Ptr())
	gl.UniformMatrix4fv(r.uView, 1, false, view.Ptr())

	light := math.Vec3{X: -0.4, Y: -0.8, Z: -0.45}.Normalize()
	gl.Uniform3f(r.uLightDir, light.X, light.Y, light.Z)
}

// Draw renders one uploaded mesh with a model transform. Materials, if
// present in the document, supply the base color factor per sub-mesh.
func (r *Renderer) Draw(g *GPUMesh, transform math.Mat4, doc *gltf.Document) {
	gl.UniformMatrix4fv(r.uModel, 1, false, transform.Ptr())
	gl.BindVertexArray(g.vao)

	for i := range g.subMeshes {
		sm := &g.subMeshes[i]

		base := [4]float32{1, 1, 1, 1}
		if doc != nil && sm.Material >= 0 && sm.Material < len(doc.Materials) {
			if pbr := doc.Materials[sm.Material].PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
				base = *pbr.BaseColorFactor
			}
		}
		gl.Uniform4f(r.uBaseColor, base[0], base[1], base[2], base[3])

		gl.DrawElementsWithOffset(gl.TRIANGLES, sm.IndexCount, gl.UNSIGNED_INT, uintptr(sm.StartIndex)*4)
	}

	gl.BindVertexArray(0)
}
