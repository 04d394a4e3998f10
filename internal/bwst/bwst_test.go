package bwst

import (
	"testing"

	"github.com/arcwave-labs/rfann/internal/graph"
	"github.com/arcwave-labs/rfann/pkg/vec"
)

func TestBuildAndQueryRoundTrip(t *testing.T) {
	dim := 2
	filters := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	vectors := make([]float32, len(filters)*dim)
	for i := range filters {
		vectors[i*dim] = float32(i)
	}

	b := Build(vectors, dim, filters, 2, 2, graph.BuildParams{R: 4, L: 8, Alpha: 1.2}, 2)
	if b.NumLevels() < 2 {
		t.Fatalf("NumLevels() = %d, want >= 2 for N=8 cutoff=2", b.NumLevels())
	}

	got := b.Query(vec.Vector{3, 0}, 0.2, 0.5, graph.QueryParams{K: 3, BeamSize: 8})
	if len(got) == 0 {
		t.Fatal("Query returned no results")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Dist < got[i-1].Dist {
			t.Fatalf("results not sorted ascending: %+v", got)
		}
	}
}

func TestQuerySequentialMatchesQuery(t *testing.T) {
	dim := 2
	filters := []float32{1, 2, 3, 4}
	vectors := make([]float32, len(filters)*dim)
	b := Build(vectors, dim, filters, 8, 2, graph.BuildParams{R: 4, L: 8, Alpha: 1.2}, 1)

	a := b.Query(vec.Vector{0, 0}, 1, 4, graph.QueryParams{K: 2, BeamSize: 4})
	c := b.QuerySequential(vec.Vector{0, 0}, 1, 4, graph.QueryParams{K: 2, BeamSize: 4})
	if len(a) != len(c) {
		t.Fatalf("len mismatch: Query=%d QuerySequential=%d", len(a), len(c))
	}
	for i := range a {
		if a[i] != c[i] {
			t.Errorf("result %d differs: %+v vs %+v", i, a[i], c[i])
		}
	}
}
