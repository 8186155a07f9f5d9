// modelview is an interactive viewer for glTF and GLB model files.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/bifrost/internal/config"
	"github.com/Faultbox/bifrost/internal/engine/camera"
	"github.com/Faultbox/bifrost/internal/engine/model"
	"github.com/Faultbox/bifrost/internal/engine/renderer"
	"github.com/Faultbox/bifrost/internal/engine/window"
	"github.com/Faultbox/bifrost/internal/logger"
	"github.com/Faultbox/bifrost/pkg/gltf"
	"github.com/Faultbox/bifrost/pkg/math"
)

const windowTitle = "Bifrost Model Viewer"

func init() {
	runtime.LockOSThread()
}

// instance pairs an uploaded mesh with one node's world transform.
type instance struct {
	gpu       *renderer.GPUMesh
	transform math.Mat4
	bounds    model.Bounds
}

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modelview [options] <file.gltf|file.glb>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	m, err := gltf.LoadFile(path)
	if err != nil {
		logger.Error("failed to load model", zap.String("path", path), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("model loaded",
		zap.String("path", path),
		zap.Int("meshes", len(m.Document.Meshes)),
		zap.Int("nodes", len(m.Document.Nodes)),
	)

	win, err := window.New(window.Config{
		Title:      windowTitle,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		logger.Error("window creation failed", zap.Error(err))
		os.Exit(1)
	}
	defer win.Close()

	rend, err := renderer.New(renderer.Config{
		Width:  cfg.Graphics.Width,
		Height: cfg.Graphics.Height,
	})
	if err != nil {
		logger.Error("renderer creation failed", zap.Error(err))
		os.Exit(1)
	}
	defer rend.Close()

	instances, err := buildScene(rend, m, model.BuildOptions{
		GenerateNormals: cfg.Import.GenerateNormals,
		KeepWinding:     cfg.Import.KeepWinding,
	})
	if err != nil {
		logger.Error("mesh assembly failed", zap.Error(err))
		os.Exit(1)
	}
	if len(instances) == 0 {
		logger.Error("document has no renderable meshes")
		os.Exit(1)
	}

	cam := camera.NewOrbitCamera()
	fitCamera(cam, instances)

	run(win, rend, cam, m.Document, instances)
	logger.Info("viewer closed normally")
}

// buildScene assembles every referenced mesh and uploads the results,
// one instance per recipient node.
func buildScene(rend *renderer.Renderer, m *gltf.Model, opts model.BuildOptions) ([]instance, error) {
	src, err := model.NewDocumentSource(m.Document, m.Buffers)
	if err != nil {
		return nil, err
	}

	orders, err := model.BuildMeshOrders(src, m.Document, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, o := range orders {
			o.Close()
		}
	}()

	world := worldTransforms(m.Document)

	var instances []instance
	for _, o := range orders {
		meshes, err := o.Generate()
		if err != nil {
			return nil, fmt.Errorf("assembling mesh %d: %w", o.MeshIndex(), err)
		}
		for _, mesh := range meshes {
			gpu, err := rend.Upload(mesh)
			if err != nil {
				logger.Warn("skipping mesh", zap.String("name", mesh.Name), zap.Error(err))
				continue
			}
			for _, node := range o.Recipients() {
				instances = append(instances, instance{
					gpu:       gpu,
					transform: world[node],
					bounds:    mesh.Bounds,
				})
			}
		}
	}
	return instances, nil
}

// worldTransforms walks the node hierarchy and accumulates each node's
// world matrix. Nodes outside every scene keep their local transform.
func worldTransforms(doc *gltf.Document) []math.Mat4 {
	world := make([]math.Mat4, len(doc.Nodes))
	for i := range doc.Nodes {
		world[i] = model.NodeTransform(&doc.Nodes[i])
	}

	var walk func(idx int, parent math.Mat4)
	walk = func(idx int, parent math.Mat4) {
		if idx < 0 || idx >= len(doc.Nodes) {
			return
		}
		world[idx] = parent.Mul(model.NodeTransform(&doc.Nodes[idx]))
		for _, child := range doc.Nodes[idx].Children {
			walk(child, world[idx])
		}
	}
	for i := range doc.Scenes {
		for _, root := range doc.Scenes[i].Nodes {
			walk(root, math.Identity())
		}
	}
	return world
}

// fitCamera frames the union of all transformed instance bounds.
func fitCamera(cam *camera.OrbitCamera, instances []instance) {
	min := math.Vec3{X: 1e10, Y: 1e10, Z: 1e10}
	max := math.Vec3{X: -1e10, Y: -1e10, Z: -1e10}
	for _, in := range instances {
		lo := in.transform.TransformPoint(in.bounds.Min)
		hi := in.transform.TransformPoint(in.bounds.Max)
		min = min.Min(lo.Min(hi))
		max = max.Max(lo.Max(hi))
	}
	cam.FitToBounds(min, max)
}

func run(win *window.Window, rend *renderer.Renderer, cam *camera.OrbitCamera, doc *gltf.Document, instances []instance) {
	var (
		leftDown   bool
		middleDown bool
	)

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				running = false

			case *sdl.WindowEvent:
				if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
					// Viewport wants pixels, not points.
					w, h := win.DrawableSize()
					rend.Resize(w, h)
				}

			case *sdl.MouseButtonEvent:
				pressed := e.State == sdl.PRESSED
				switch e.Button {
				case sdl.BUTTON_LEFT:
					leftDown = pressed
				case sdl.BUTTON_MIDDLE:
					middleDown = pressed
				}

			case *sdl.MouseMotionEvent:
				if leftDown {
					cam.HandleDrag(float32(e.XRel), float32(e.YRel))
				} else if middleDown {
					cam.HandlePan(float32(e.XRel), float32(e.YRel))
				}

			case *sdl.MouseWheelEvent:
				cam.HandleZoom(float32(e.Y))

			case *sdl.KeyboardEvent:
				if e.State == sdl.PRESSED {
					switch e.Keysym.Sym {
					case sdl.K_ESCAPE, sdl.K_q:
						running = false
					case sdl.K_f:
						fitCamera(cam, instances)
					}
				}
			}
		}

		w, h := win.GetSize()
		aspect := float32(w) / float32(h)
		proj := math.Perspective(0.9, aspect, 0.01, 1000)

		rend.Begin(proj, cam.ViewMatrix())
		for _, in := range instances {
			rend.Draw(in.gpu, in.transform, doc)
		}

		win.SwapBuffers()
	}
}
