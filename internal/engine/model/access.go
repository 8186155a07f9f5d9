package model

import (
	"errors"
	"fmt"

	"github.com/Faultbox/bifrost/pkg/gltf"
)

// Accessor access errors.
var (
	ErrInvalidIndex = errors.New("model: invalid index")
	ErrInvalidRange = errors.New("model: invalid buffer view range")
)

// AccessorSource is the capability boundary between the document model
// and mesh assembly: bounds-checked access to accessor descriptors and
// the raw bytes behind them. All returned byte slices are borrowed
// views into the document's buffers; they are valid for the duration of
// the decode pass and must not be retained beyond it.
type AccessorSource interface {
	// Accessor returns the descriptor for accessor index i.
	Accessor(i int) (*gltf.Accessor, error)

	// AccessorData returns the accessor's element bytes and the byte
	// stride between consecutive elements. The stride may exceed the
	// element size for interleaved attributes; callers must
	// stride-index, never assume packing.
	AccessorData(i int) (data []byte, stride int, err error)

	// AccessorBytes returns descriptor, bytes, and stride in one call,
	// for hot decode loops.
	AccessorBytes(i int) (acc *gltf.Accessor, data []byte, stride int, err error)

	// SparseIndices returns the raw override index bytes for a sparse
	// accessor (tightly packed, Sparse.Indices.ComponentType).
	SparseIndices(acc *gltf.Accessor) ([]byte, error)

	// SparseValues returns the raw override value bytes for a sparse
	// accessor (tightly packed accessor elements).
	SparseValues(acc *gltf.Accessor) ([]byte, error)

	// BufferView returns a sub-range of buffer view i and the view's
	// byte stride. offset and length of 0 mean the whole view.
	BufferView(i, offset, length int) (data []byte, stride int, err error)
}

// DocumentSource implements AccessorSource over a parsed document and
// its resolved buffer byte slices. It never copies buffer data except
// for the zero-filled backing store of accessors that declare no
// buffer view.
type DocumentSource struct {
	doc     *gltf.Document
	buffers [][]byte
}

// NewDocumentSource builds an accessor source for doc. buffers must
// hold one resolved byte slice per document buffer.
func NewDocumentSource(doc *gltf.Document, buffers [][]byte) (*DocumentSource, error) {
	if len(buffers) != len(doc.Buffers) {
		return nil, fmt.Errorf("model: %d buffers resolved, document declares %d", len(buffers), len(doc.Buffers))
	}
	return &DocumentSource{doc: doc, buffers: buffers}, nil
}

// Accessor returns the descriptor for accessor index i.
func (s *DocumentSource) Accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(s.doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d of %d", ErrInvalidIndex, i, len(s.doc.Accessors))
	}
	return &s.doc.Accessors[i], nil
}

// AccessorData returns the accessor's element bytes and stride.
func (s *DocumentSource) AccessorData(i int) ([]byte, int, error) {
	_, data, stride, err := s.AccessorBytes(i)
	return data, stride, err
}

// AccessorBytes returns descriptor, element bytes, and stride.
func (s *DocumentSource) AccessorBytes(i int) (*gltf.Accessor, []byte, int, error) {
	acc, err := s.Accessor(i)
	if err != nil {
		return nil, nil, 0, err
	}

	elemSize := acc.ElementSize()
	if acc.BufferView == nil {
		// No backing view: elements read as zero (sparse overrides may
		// still apply on top).
		return acc, make([]byte, acc.Count*elemSize), elemSize, nil
	}

	view, stride, err := s.BufferView(*acc.BufferView, 0, 0)
	if err != nil {
		return nil, nil, 0, err
	}
	if stride == 0 {
		stride = elemSize
	}
	end := acc.ByteOffset + (acc.Count-1)*stride + elemSize
	if end > len(view) {
		return nil, nil, 0, fmt.Errorf("%w: accessor %d needs %d bytes, view has %d",
			ErrInvalidRange, i, end, len(view))
	}
	return acc, view[acc.ByteOffset:end:end], stride, nil
}

// SparseIndices returns the raw override index bytes for acc.
func (s *DocumentSource) SparseIndices(acc *gltf.Accessor) ([]byte, error) {
	sp := acc.Sparse
	if sp == nil {
		return nil, fmt.Errorf("%w: accessor is not sparse", ErrInvalidIndex)
	}
	n := sp.Count * sp.Indices.ComponentType.Size()
	data, _, err := s.BufferView(sp.Indices.BufferView, sp.Indices.ByteOffset, n)
	return data, err
}

// SparseValues returns the raw override value bytes for acc.
func (s *DocumentSource) SparseValues(acc *gltf.Accessor) ([]byte, error) {
	sp := acc.Sparse
	if sp == nil {
		return nil, fmt.Errorf("%w: accessor is not sparse", ErrInvalidIndex)
	}
	n := sp.Count * acc.ElementSize()
	data, _, err := s.BufferView(sp.Values.BufferView, sp.Values.ByteOffset, n)
	return data, err
}

// BufferView returns a sub-range of buffer view i and the view's byte
// stride. offset and length of 0 mean the whole view.
func (s *DocumentSource) BufferView(i, offset, length int) ([]byte, int, error) {
	if i < 0 || i >= len(s.doc.BufferViews) {
		return nil, 0, fmt.Errorf("%w: bufferView %d of %d", ErrInvalidIndex, i, len(s.doc.BufferViews))
	}
	view := &s.doc.BufferViews[i]

	buf := s.buffers[view.Buffer]
	if buf == nil {
		return nil, 0, fmt.Errorf("%w: buffer %d", gltf.ErrBufferUnresolved, view.Buffer)
	}
	if view.ByteOffset+view.ByteLength > len(buf) {
		return nil, 0, fmt.Errorf("%w: view %d exceeds buffer %d", ErrInvalidRange, i, view.Buffer)
	}

	if length == 0 {
		length = view.ByteLength - offset
	}
	if offset < 0 || length < 0 || offset+length > view.ByteLength {
		return nil, 0, fmt.Errorf("%w: (%d, %d) of view length %d", ErrInvalidRange, offset, length, view.ByteLength)
	}
	start := view.ByteOffset + offset
	return buf[start : start+length : start+length], view.ByteStride, nil
}
