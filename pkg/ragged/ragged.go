// Package ragged provides a flattened two-level array: one contiguous
// value buffer plus an offset table, giving O(1) random access to
// variable-length groups without allocating a slice per group.
package ragged

import (
	"errors"
	"fmt"
	"iter"
)

// Index errors.
var (
	ErrIndexOutOfRange = errors.New("ragged: index out of range")
	ErrInvalidOffsets  = errors.New("ragged: invalid offsets table")
)

// Index is a ragged array of groups of T backed by a single value buffer.
// Group i spans values[offsets[i]:offsets[i+1]]. The group structure is
// fixed at construction; only values can be written afterwards.
type Index[T any] struct {
	values  []T
	offsets []int
}

// New builds an Index from an offsets table of length groupCount+1.
// offsets[0] must be 0 and the table must be non-decreasing; the value
// buffer is allocated with offsets[len(offsets)-1] elements.
func New[T any](offsets []int) (*Index[T], error) {
	if len(offsets) == 0 || offsets[0] != 0 {
		return nil, fmt.Errorf("%w: first offset must be 0", ErrInvalidOffsets)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, fmt.Errorf("%w: offsets must be non-decreasing at %d", ErrInvalidOffsets, i)
		}
	}

	idx := &Index[T]{
		values:  make([]T, offsets[len(offsets)-1]),
		offsets: make([]int, len(offsets)),
	}
	copy(idx.offsets, offsets)
	return idx, nil
}

// Len returns the number of groups.
func (x *Index[T]) Len() int {
	return len(x.offsets) - 1
}

// GroupLen returns the number of values in group i.
func (x *Index[T]) GroupLen(i int) (int, error) {
	if i < 0 || i >= x.Len() {
		return 0, fmt.Errorf("%w: group %d of %d", ErrIndexOutOfRange, i, x.Len())
	}
	return x.offsets[i+1] - x.offsets[i], nil
}

// At returns element j of group i.
func (x *Index[T]) At(i, j int) (T, error) {
	var zero T
	n, err := x.GroupLen(i)
	if err != nil {
		return zero, err
	}
	if j < 0 || j >= n {
		return zero, fmt.Errorf("%w: element %d of %d in group %d", ErrIndexOutOfRange, j, n, i)
	}
	return x.values[x.offsets[i]+j], nil
}

// Set stores v as element j of group i.
func (x *Index[T]) Set(i, j int, v T) error {
	n, err := x.GroupLen(i)
	if err != nil {
		return err
	}
	if j < 0 || j >= n {
		return fmt.Errorf("%w: element %d of %d in group %d", ErrIndexOutOfRange, j, n, i)
	}
	x.values[x.offsets[i]+j] = v
	return nil
}

// Values returns an iterator over group i's elements. The iterator is
// restartable and yields nothing for an out-of-range group.
func (x *Index[T]) Values(i int) iter.Seq[T] {
	return func(yield func(T) bool) {
		if i < 0 || i >= x.Len() {
			return
		}
		for _, v := range x.values[x.offsets[i]:x.offsets[i+1]] {
			if !yield(v) {
				return
			}
		}
	}
}

// Flat returns the whole value buffer with groups concatenated in
// order. The slice aliases the index.
func (x *Index[T]) Flat() []T {
	return x.values
}

// Group returns group i's elements as a borrowed subslice of the value
// buffer. The slice must not be grown; writes alias the index.
func (x *Index[T]) Group(i int) ([]T, error) {
	if i < 0 || i >= x.Len() {
		return nil, fmt.Errorf("%w: group %d of %d", ErrIndexOutOfRange, i, x.Len())
	}
	return x.values[x.offsets[i]:x.offsets[i+1]:x.offsets[i+1]], nil
}
