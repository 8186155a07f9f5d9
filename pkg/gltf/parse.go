package gltf

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Model bundles a parsed document with its resolved buffer data.
// Buffers[i] corresponds to Document.Buffers[i]; entries for buffers
// that could not be resolved in-memory (external URIs parsed via Parse)
// are nil.
type Model struct {
	Document *Document
	Buffers  [][]byte
}

// Parse parses glTF data in either form: a GLB container or a plain
// JSON document. Embedded buffers (the GLB BIN chunk and base64 data
// URIs) are resolved; buffers referencing external files are left nil
// for the caller to supply.
func Parse(data []byte) (*Model, error) {
	var (
		doc *Document
		bin []byte
		err error
	)

	if IsBinary(data) {
		chunks, err := SplitChunks(data)
		if err != nil {
			return nil, err
		}
		var jsonData []byte
		for _, c := range chunks {
			switch c.Type {
			case ChunkJSON:
				if jsonData == nil {
					jsonData = c.Data
				}
			case ChunkBIN:
				if bin == nil {
					bin = c.Data
				}
			}
			// Other chunk types are opaque; skip them.
		}
		if jsonData == nil {
			return nil, ErrMissingJSONChunk
		}
		doc, err = ParseDocument(jsonData)
		if err != nil {
			return nil, err
		}
	} else {
		doc, err = ParseDocument(data)
		if err != nil {
			return nil, err
		}
	}

	model := &Model{
		Document: doc,
		Buffers:  make([][]byte, len(doc.Buffers)),
	}
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]
		switch {
		case buf.URI == "":
			// GLB-embedded buffer; only buffer 0 may omit the URI.
			if i == 0 && bin != nil {
				model.Buffers[i] = bin
			}
		case strings.HasPrefix(buf.URI, "data:"):
			decoded, err := decodeDataURI(buf.URI)
			if err != nil {
				return nil, fmt.Errorf("buffer %d: %w", i, err)
			}
			model.Buffers[i] = decoded
		}
	}
	return model, nil
}

// LoadFile parses a .gltf or .glb file and resolves external buffer
// URIs relative to the file's directory.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading glTF file: %w", err)
	}

	model, err := Parse(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i, buf := range model.Document.Buffers {
		if model.Buffers[i] != nil || buf.URI == "" {
			continue
		}
		ext, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(buf.URI)))
		if err != nil {
			return nil, fmt.Errorf("buffer %d (%s): %w", i, buf.URI, err)
		}
		model.Buffers[i] = ext
	}
	return model, nil
}

// decodeDataURI decodes a base64 data: URI payload.
func decodeDataURI(uri string) ([]byte, error) {
	idx := strings.Index(uri, ";base64,")
	if idx < 0 {
		return nil, fmt.Errorf("unsupported data URI encoding")
	}
	decoded, err := base64.StdEncoding.DecodeString(uri[idx+len(";base64,"):])
	if err != nil {
		return nil, fmt.Errorf("decoding data URI: %w", err)
	}
	return decoded, nil
}
