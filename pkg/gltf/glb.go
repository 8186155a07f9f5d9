package gltf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// GLB container errors.
var (
	ErrInvalidMagic       = errors.New("invalid GLB magic: expected 'glTF'")
	ErrUnsupportedVersion = errors.New("unsupported GLB container version")
	ErrTruncatedChunk     = errors.New("truncated GLB chunk")
	ErrMissingJSONChunk   = errors.New("GLB container has no JSON chunk")
)

// GLB framing constants. Magic and chunk tags are ASCII packed
// little-endian: "glTF", "JSON", "BIN\x00".
const (
	glbMagic   uint32 = 0x46546C67
	glbVersion uint32 = 2

	// ChunkJSON tags the document chunk.
	ChunkJSON uint32 = 0x4E4F534A
	// ChunkBIN tags the embedded binary buffer chunk.
	ChunkBIN uint32 = 0x004E4942

	glbHeaderSize   = 12
	chunkHeaderSize = 8
)

// Chunk is one tagged segment of a GLB container. Unrecognized chunk
// types are carried through untouched so that future container
// extensions do not break parsing.
type Chunk struct {
	Type uint32
	Data []byte
}

// IsBinary reports whether data starts with the GLB container magic.
// It never modifies or copies data.
func IsBinary(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return binary.LittleEndian.Uint32(data[:4]) == glbMagic
}

// SplitChunks splits a GLB container into its chunks. The container
// header (magic, version, total length) is validated; each chunk is a
// borrowed subslice of data, padded to 4-byte alignment on the wire.
func SplitChunks(data []byte) ([]Chunk, error) {
	if !IsBinary(data) {
		return nil, ErrInvalidMagic
	}
	if len(data) < glbHeaderSize {
		return nil, fmt.Errorf("%w: container header", ErrTruncatedChunk)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != glbVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	total := int(binary.LittleEndian.Uint32(data[8:12]))
	if total > len(data) {
		return nil, fmt.Errorf("%w: declared length %d exceeds %d bytes", ErrTruncatedChunk, total, len(data))
	}

	var chunks []Chunk
	pos := glbHeaderSize
	for pos+chunkHeaderSize <= total {
		length := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		ctype := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		pos += chunkHeaderSize

		if pos+length > total {
			return nil, fmt.Errorf("%w: chunk 0x%08x wants %d bytes, %d remain", ErrTruncatedChunk, ctype, length, total-pos)
		}
		chunks = append(chunks, Chunk{Type: ctype, Data: data[pos : pos+length]})

		// Chunks are padded to 4-byte alignment.
		pos += (length + 3) &^ 3
	}
	return chunks, nil
}
