package tree

import (
	"testing"

	"github.com/arcwave-labs/rfann/internal/graph"
)

func buildLineCorpus(n, dim int) ([]float32, []float32) {
	vectors := make([]float32, n*dim)
	filters := make([]float32, n)
	for i := 0; i < n; i++ {
		vectors[i*dim] = float32(i)
		filters[i] = float32(n - i) // descending, to exercise the sort
	}
	return vectors, filters
}

func TestBuildSortsByFilter(t *testing.T) {
	vectors, filters := buildLineCorpus(16, 4)
	tr := Build(vectors, 4, filters, 4, 2, graph.BuildParams{R: 4, L: 8, Alpha: 1.2}, 2)

	for i := 1; i < len(tr.Filter); i++ {
		if tr.Filter[i] < tr.Filter[i-1] {
			t.Fatalf("Filter not sorted at %d: %v", i, tr.Filter)
		}
	}

	for sortedID, originalID := range tr.Decoding {
		if tr.Filter[sortedID] != filters[originalID] {
			t.Errorf("Decoding[%d] = %d: filter mismatch %v != %v",
				sortedID, originalID, tr.Filter[sortedID], filters[originalID])
		}
	}
}

func TestBuildDecodingIsBijection(t *testing.T) {
	vectors, filters := buildLineCorpus(40, 3)
	tr := Build(vectors, 3, filters, 8, 2, graph.BuildParams{R: 6, L: 12, Alpha: 1.2}, 4)

	seen := make([]bool, len(tr.Decoding))
	for _, id := range tr.Decoding {
		if seen[id] {
			t.Fatalf("original id %d decoded twice", id)
		}
		seen[id] = true
	}
	for i, ok := range seen {
		if !ok {
			t.Errorf("original id %d never decoded to", i)
		}
	}
}

func TestBuildCreatesOneIndexPerBucket(t *testing.T) {
	vectors, filters := buildLineCorpus(20, 2)
	tr := Build(vectors, 2, filters, 4, 2, graph.BuildParams{R: 4, L: 8, Alpha: 1.2}, 0)

	for l := 0; l < tr.Offsets.Depth(); l++ {
		for b := 0; b < tr.Offsets.NumBuckets(l); b++ {
			if tr.Index(l, b) == nil {
				t.Errorf("missing index for level %d bucket %d", l, b)
			}
		}
	}
}
