// Package points implements PointStore: an immutable, random-access
// collection of N vectors in R^D, shared read-only by every GraphIndex
// built over a subset of it.
package points

import "github.com/arcwave-labs/rfann/pkg/vec"

// Store owns a contiguous row-major buffer of n*d float32 scalars. Element
// type, d, and n are fixed at construction; the store guarantees vector
// data outlives every GraphIndex built over a subset of it because nothing
// in this package ever copies or mutates data after New returns.
type Store struct {
	dim  int
	n    int
	data []float32
}

// New wraps an existing row-major n*d buffer. The caller must not mutate
// data afterwards.
func New(n, dim int, data []float32) *Store {
	if len(data) != n*dim {
		panic("points: data length does not match n*dim")
	}
	return &Store{dim: dim, n: n, data: data}
}

func (s *Store) Dim() int { return s.dim }
func (s *Store) Len() int { return s.n }

// Get returns a zero-copy view of the i-th vector.
func (s *Store) Get(i int) vec.Vector {
	off := i * s.dim
	return vec.Vector(s.data[off : off+s.dim])
}

// Subset returns a cheap, read-only restriction addressed by local indices
// 0..len(ids), each mapping to a sorted id in the parent store.
func (s *Store) Subset(ids []int32) *SubsetView {
	return &SubsetView{store: s, ids: ids}
}

// SubsetView borrows a Store plus an owned id-remap table. The store
// outlives all views by construction order.
type SubsetView struct {
	store *Store
	ids   []int32
}

func (v *SubsetView) Len() int { return len(v.ids) }
func (v *SubsetView) Dim() int { return v.store.Dim() }

// Get returns the vector addressed by local index.
func (v *SubsetView) Get(local int) vec.Vector {
	return v.store.Get(int(v.ids[local]))
}

// GlobalID maps a local index back to the store's sorted id.
func (v *SubsetView) GlobalID(local int) int32 {
	return v.ids[local]
}
