package query

import (
	"testing"

	"github.com/arcwave-labs/rfann/internal/graph"
	"github.com/arcwave-labs/rfann/internal/tree"
	"github.com/arcwave-labs/rfann/pkg/vec"
)

func buildTree(t *testing.T, vectors, filters []float32, dim, cutoff, splitFactor int) *tree.Tree {
	t.Helper()
	return tree.Build(vectors, dim, filters, cutoff, splitFactor, graph.BuildParams{R: 4, L: 8, Alpha: 1.2}, 1)
}

// S1 — unit tree: N=4, D=2, a single level.
func TestSearchUnitTree(t *testing.T) {
	vectors := []float32{0, 0, 1, 0, 2, 0, 3, 0}
	filters := []float32{0.1, 0.2, 0.3, 0.4}
	tr := buildTree(t, vectors, filters, 2, 8, 2)
	e := NewEngine(tr)

	got := e.Search(vec.Vector{0.5, 0}, 0.0, 1.0, graph.QueryParams{K: 2, BeamSize: 4})
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	seen := map[int32]bool{}
	for _, r := range got {
		seen[r.OriginalID] = true
		if r.Dist != 0.5 {
			t.Errorf("dist = %v, want 0.5", r.Dist)
		}
	}
	if !seen[0] || !seen[1] {
		t.Errorf("got = %+v, want original ids {0,1}", got)
	}
}

// S4 — exact-hit inclusion: filters [1,2,3,3,4], range [3,3] must only
// draw from sorted-ids {2,3}.
func TestSearchExactHitInclusion(t *testing.T) {
	dim := 2
	filters := []float32{1, 2, 3, 3, 4}
	vectors := make([]float32, len(filters)*dim)
	for i := range filters {
		vectors[i*dim] = float32(i)
	}
	tr := buildTree(t, vectors, filters, dim, 8, 2)
	e := NewEngine(tr)

	got := e.Search(vec.Vector{0, 0}, 3, 3, graph.QueryParams{K: 5, BeamSize: 8})
	seen := map[int32]bool{}
	for _, r := range got {
		seen[r.OriginalID] = true
		f := tr.Filter[inverse(tr, r.OriginalID)]
		if f != 3 {
			t.Errorf("result %+v has filter %v, want 3", r, f)
		}
	}
	// Both sorted-ids tied at filter==3 (original ids 2 and 3) must be
	// reachable candidates, not just whichever one a naive single
	// increment past firstGE(hi) would have left in range.
	if !seen[2] || !seen[3] {
		t.Errorf("got = %+v, want both tied original ids {2,3} reachable", got)
	}
}

// S5 — empty interval: filters [1..5], range [10,20] must return nothing.
func TestSearchEmptyInterval(t *testing.T) {
	dim := 2
	filters := []float32{1, 2, 3, 4, 5}
	vectors := make([]float32, len(filters)*dim)
	tr := buildTree(t, vectors, filters, dim, 8, 2)
	e := NewEngine(tr)

	got := e.Search(vec.Vector{0, 0}, 10, 20, graph.QueryParams{K: 5, BeamSize: 8})
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}

func TestSearchKZeroReturnsEmpty(t *testing.T) {
	dim := 2
	filters := []float32{1, 2, 3}
	vectors := make([]float32, len(filters)*dim)
	tr := buildTree(t, vectors, filters, dim, 8, 2)
	e := NewEngine(tr)

	got := e.Search(vec.Vector{0, 0}, 1, 3, graph.QueryParams{K: 0, BeamSize: 8})
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}

// S3 — straddle: results must still respect the requested range even
// when the selected span covers buckets outside [lo,hi].
func TestSearchStraddlePostFilters(t *testing.T) {
	dim := 2
	n := 8
	filters := make([]float32, n)
	vectors := make([]float32, n*dim)
	for i := 0; i < n; i++ {
		filters[i] = float32(i + 1)
		vectors[i*dim] = float32(i)
	}
	tr := buildTree(t, vectors, filters, dim, 2, 2)
	e := NewEngine(tr)

	got := e.Search(vec.Vector{0, 0}, 2, 5, graph.QueryParams{K: 8, BeamSize: 8})
	for _, r := range got {
		f := tr.Filter[inverse(tr, r.OriginalID)]
		if f < 2 || f > 5 {
			t.Errorf("result %+v has filter %v, outside [2,5]", r, f)
		}
	}
}

func TestSearchResultsSortedAscending(t *testing.T) {
	dim := 3
	n := 60
	filters := make([]float32, n)
	vectors := make([]float32, n*dim)
	for i := 0; i < n; i++ {
		filters[i] = float32(i)
		vectors[i*dim] = float32(i % 11)
	}
	tr := buildTree(t, vectors, filters, dim, 8, 3)
	e := NewEngine(tr)

	got := e.Search(vec.Vector{4, 0, 0}, 0, 59, graph.QueryParams{K: 10, BeamSize: 20})
	for i := 1; i < len(got); i++ {
		if got[i].Dist < got[i-1].Dist {
			t.Fatalf("results not sorted: %+v", got)
		}
	}
}

func inverse(tr *tree.Tree, originalID int32) int {
	for sortedID, id := range tr.Decoding {
		if id == originalID {
			return sortedID
		}
	}
	return -1
}
