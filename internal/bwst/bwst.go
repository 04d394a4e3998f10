// Package bwst exposes the B-Window Search Tree as a thin two-operation
// facade over internal/tree and internal/query, mirroring the teacher
// corpus's top-level index facade: construction and search, nothing else.
package bwst

import (
	"github.com/arcwave-labs/rfann/internal/graph"
	"github.com/arcwave-labs/rfann/internal/query"
	"github.com/arcwave-labs/rfann/internal/tree"
	"github.com/arcwave-labs/rfann/pkg/vec"
)

// BWST owns the built tree and query engine. It maintains no other
// state: the index is read-only once Build returns.
type BWST struct {
	tree   *tree.Tree
	engine *query.Engine
}

// Build sorts the corpus by filter value and constructs one GraphIndex
// per bucket, in parallel bounded by parallelism (0 means
// runtime.GOMAXPROCS(0)).
func Build(vectors []float32, dim int, filters []float32, cutoff, splitFactor int, bp graph.BuildParams, parallelism int) *BWST {
	t := tree.Build(vectors, dim, filters, cutoff, splitFactor, bp, parallelism)
	return &BWST{tree: t, engine: query.NewEngine(t)}
}

// Query answers optimized_postfiltering_search(q, (lo, hi), qp). Per-
// bucket beam searches within the call are dispatched sequentially by
// internal/query, so this already satisfies the single-threaded query
// contract; QuerySequential exists only to make that guarantee explicit
// at call sites that must document it.
func (b *BWST) Query(q vec.Vector, lo, hi float32, qp graph.QueryParams) []query.Result {
	return b.engine.Search(q, lo, hi, qp)
}

// QuerySequential is the forced single-goroutine entry point required by
// the concurrency model: a query executes entirely on the calling
// goroutine, with no worker-pool fan-out, regardless of how the caller's
// own process is otherwise parallelized.
func (b *BWST) QuerySequential(q vec.Vector, lo, hi float32, qp graph.QueryParams) []query.Result {
	return b.Query(q, lo, hi, qp)
}

// NumLevels reports the depth of the underlying bucket layout, mostly
// useful for diagnostics and tests.
func (b *BWST) NumLevels() int { return b.tree.Offsets.Depth() }
