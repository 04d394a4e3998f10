// Package query implements optimized_postfiltering_search: translating a
// filter interval to a sorted-id range, selecting the covering bucket
// span, running per-bucket beam searches, merging, post-filtering, and
// mapping results back to original ids.
package query

import (
	"sort"

	"github.com/arcwave-labs/rfann/internal/graph"
	"github.com/arcwave-labs/rfann/internal/tree"
	"github.com/arcwave-labs/rfann/pkg/vec"
)

// Result is one ranked hit, addressed by original id.
type Result struct {
	OriginalID int32
	Dist       float32
}

// Engine answers range-filtered queries against a built Tree.
type Engine struct {
	tree *tree.Tree
}

func NewEngine(t *tree.Tree) *Engine { return &Engine{tree: t} }

// Search runs optimized_postfiltering_search(q, (lo, hi), qp). It always
// executes on the calling goroutine: per-bucket beam searches are
// dispatched sequentially, satisfying the single-threaded query contract
// without any extra plumbing at the call site.
func (e *Engine) Search(q vec.Vector, lo, hi float32, qp graph.QueryParams) []Result {
	n := len(e.tree.Filter)
	if n == 0 || qp.K == 0 {
		return nil
	}

	// Step 1 — empty check.
	if hi < e.tree.Filter[0] || lo > e.tree.Filter[n-1] {
		return nil
	}

	// Step 2 — translate interval to index range.
	start := firstGE(e.tree.Filter, lo)
	end := firstGE(e.tree.Filter, hi)
	for end < n && e.tree.Filter[end] == hi {
		end++
	}
	if start >= end {
		return nil
	}

	// Step 3 — select bucket span.
	level, bStart, bEnd := e.tree.Offsets.SelectSpan(start, end)

	// The single-bucket case only lets us skip post-filtering when that
	// bucket's own sorted-id range is exactly [start, end) — e.g. S2's
	// bucket [2,4) against query range [2,4). A single-level tree (no
	// split ever happened) also reports exactly one bucket, but that
	// bucket is the whole corpus [0, N) and almost never equals
	// [start, end), so it must still be post-filtered like a straddle.
	spanStart, _ := e.tree.Offsets.Bucket(level, bStart)
	_, spanEnd := e.tree.Offsets.Bucket(level, bEnd-1)
	tightFit := spanStart == start && spanEnd == end

	// Step 4 — per-bucket beam search, single-threaded.
	type hit struct {
		sortedID int32
		dist     float32
		order    int // arrival order, for stable distance ties
	}
	var hits []hit
	for b := bStart; b < bEnd; b++ {
		bucketStart, _ := e.tree.Offsets.Bucket(level, b)
		idx := e.tree.Index(level, b)
		for _, c := range idx.BeamSearch(q, qp) {
			hits = append(hits, hit{
				sortedID: int32(bucketStart) + c.LocalID,
				dist:     c.Dist,
				order:    len(hits),
			})
		}
	}

	// Step 5 — merge and post-filter.
	if !tightFit {
		filtered := hits[:0]
		for _, h := range hits {
			if int(h.sortedID) >= start && int(h.sortedID) < end {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].order < hits[j].order
	})

	if len(hits) > qp.K {
		hits = hits[:qp.K]
	}

	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = Result{
			OriginalID: e.tree.Decoding[h.sortedID],
			Dist:       h.dist,
		}
	}
	return out
}

// firstGE is a lower-bound binary search: the first index i such that
// filter[i] >= target, or len(filter) if none.
func firstGE(filter []float32, target float32) int {
	lo, hi := 0, len(filter)
	for lo < hi {
		mid := (lo + hi) / 2
		if filter[mid] >= target {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
