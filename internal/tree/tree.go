// Package tree implements TreeBuilder: it sorts a corpus by filter value,
// reorders the vector buffer to match, and builds one graph.Index per
// bucket of the resulting layout.Offsets, in parallel.
package tree

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/arcwave-labs/rfann/internal/graph"
	"github.com/arcwave-labs/rfann/internal/layout"
	"github.com/arcwave-labs/rfann/internal/points"
)

// Tree is the built B-WST: a sorted PointStore, its filter array, the
// bucket layout, the decoding permutation back to original ids, and one
// graph.Index per (level, bucket).
type Tree struct {
	Store    *points.Store
	Filter   []float32
	Offsets  *layout.Offsets
	Decoding []int32 // Decoding[sortedID] = originalID

	indices [][]*graph.Index // indices[level][bucket]
}

// Index returns the graph.Index for bucket b at level l.
func (t *Tree) Index(level, bucket int) *graph.Index {
	return t.indices[level][bucket]
}

// Build sorts points by filter value, reorders the vector buffer to
// match, lays out buckets per §4.3, and builds every bucket's graph.Index
// concurrently, bounded by parallelism goroutines. parallelism == 0 means
// runtime.GOMAXPROCS(0).
func Build(vectors []float32, dim int, filters []float32, cutoff, splitFactor int, bp graph.BuildParams, parallelism int) *Tree {
	n := len(filters)
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool { return filters[perm[a]] < filters[perm[b]] })

	sortedFilter := make([]float32, n)
	sortedVectors := make([]float32, n*dim)
	decoding := make([]int32, n)
	reorder(perm, dim, filters, vectors, sortedFilter, sortedVectors, decoding, parallelism)

	store := points.New(n, dim, sortedVectors)
	offsets := layout.Build(n, cutoff, splitFactor)

	t := &Tree{
		Store:    store,
		Filter:   sortedFilter,
		Offsets:  offsets,
		Decoding: decoding,
		indices:  make([][]*graph.Index, offsets.Depth()),
	}

	for l := 0; l < offsets.Depth(); l++ {
		numBuckets := offsets.NumBuckets(l)
		t.indices[l] = make([]*graph.Index, numBuckets)

		g := &errgroup.Group{}
		g.SetLimit(parallelism)
		for b := 0; b < numBuckets; b++ {
			b := b
			start, end := offsets.Bucket(l, b)
			g.Go(func() error {
				ids := make([]int32, end-start)
				for i := range ids {
					ids[i] = int32(start + i)
				}
				t.indices[l][b] = graph.Build(store.Subset(ids), bp)
				return nil
			})
		}
		_ = g.Wait() // bucket builds never return an error
	}

	return t
}

// reorder permutes filters/vectors into the sorted buffers, fanning the
// row copy out over contiguous ranges of sorted ids bounded by
// parallelism goroutines; each goroutine writes disjoint output rows, so
// no synchronization beyond the final Wait is needed.
func reorder(perm []int, dim int, filters, vectors []float32, sortedFilter, sortedVectors []float32, decoding []int32, parallelism int) {
	n := len(perm)
	if n == 0 {
		return
	}

	chunk := (n + parallelism - 1) / parallelism
	g := &errgroup.Group{}
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				src := perm[i]
				sortedFilter[i] = filters[src]
				decoding[i] = int32(src)
				copy(sortedVectors[i*dim:(i+1)*dim], vectors[src*dim:(src+1)*dim])
			}
			return nil
		})
	}
	_ = g.Wait()
}
