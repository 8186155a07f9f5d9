// gltftool is a CLI utility for inspecting glTF and GLB model files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/bifrost/internal/engine/model"
	"github.com/Faultbox/bifrost/pkg/gltf"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "meshes", "ls":
		cmdMeshes(args)
	case "validate", "check":
		cmdValidate(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gltftool - glTF/GLB model inspection utility

Usage:
  gltftool <command> [options]

Commands:
  info <file>              Show document summary
  meshes <file>            Assemble meshes and print their statistics
  validate <file>          Check document references and buffer bounds

Examples:
  gltftool info scene.glb
  gltftool meshes -keep-winding character.gltf
  gltftool validate scene.glb`)
}

func loadModel(path string) *gltf.Model {
	m, err := gltf.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return m
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gltftool info <file>")
		os.Exit(1)
	}

	m := loadModel(args[0])
	doc := m.Document

	container := "glTF (JSON)"
	if data, err := os.ReadFile(args[0]); err == nil && gltf.IsBinary(data) {
		container = "GLB (binary)"
	}

	fmt.Printf("File:       %s\n", args[0])
	fmt.Printf("Container:  %s\n", container)
	fmt.Printf("Version:    %s\n", doc.Asset.Version)
	if doc.Asset.Generator != "" {
		fmt.Printf("Generator:  %s\n", doc.Asset.Generator)
	}
	fmt.Println()
	fmt.Printf("Scenes:       %d\n", len(doc.Scenes))
	fmt.Printf("Nodes:        %d\n", len(doc.Nodes))
	fmt.Printf("Meshes:       %d\n", len(doc.Meshes))
	fmt.Printf("Materials:    %d\n", len(doc.Materials))
	fmt.Printf("Accessors:    %d\n", len(doc.Accessors))
	fmt.Printf("BufferViews:  %d\n", len(doc.BufferViews))

	var total int
	for i := range doc.Buffers {
		total += doc.Buffers[i].ByteLength
	}
	fmt.Printf("Buffers:      %d (%.2f MB)\n", len(doc.Buffers), float64(total)/(1024*1024))
}

func cmdMeshes(args []string) {
	fs := flag.NewFlagSet("meshes", flag.ExitOnError)
	keepWinding := fs.Bool("keep-winding", false, "Keep source triangle winding")
	genNormals := fs.Bool("gen-normals", false, "Generate normals when missing")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gltftool meshes [options] <file>")
		os.Exit(1)
	}

	m := loadModel(fs.Arg(0))
	src, err := model.NewDocumentSource(m.Document, m.Buffers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := model.BuildOptions{
		KeepWinding:     *keepWinding,
		GenerateNormals: *genNormals,
	}
	orders, err := model.BuildMeshOrders(src, m.Document, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		for _, o := range orders {
			o.Close()
		}
	}()

	for _, o := range orders {
		meshes, err := o.Generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error assembling mesh %d: %v\n", o.MeshIndex(), err)
			os.Exit(1)
		}
		for _, mesh := range meshes {
			name := mesh.Name
			if name == "" {
				name = fmt.Sprintf("(mesh %d)", o.MeshIndex())
			}
			fmt.Printf("%s\n", name)
			fmt.Printf("  vertices:   %d\n", len(mesh.Vertices))
			fmt.Printf("  triangles:  %d\n", len(mesh.Indices)/3)
			fmt.Printf("  sub-meshes: %d\n", len(mesh.SubMeshes))
			fmt.Printf("  nodes:      %v\n", o.Recipients())
			b := mesh.Bounds
			fmt.Printf("  bounds:     (%.3f %.3f %.3f) .. (%.3f %.3f %.3f)\n",
				b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
		}
	}
}

func cmdValidate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gltftool validate <file>")
		os.Exit(1)
	}

	m := loadModel(args[0])
	if err := m.Document.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}
