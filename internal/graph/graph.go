// Package graph implements GraphIndex: a Vamana-style proximity graph built
// over a subset of points, queried with a bounded beam search. Each B-WST
// bucket owns exactly one Index.
package graph

import (
	"container/heap"
	"math/rand/v2"
	"sync"

	"github.com/arcwave-labs/rfann/internal/points"
	"github.com/arcwave-labs/rfann/pkg/vec"
)

// BuildParams bounds the shape of the graph: R is the maximum out-degree,
// L is the candidate-list size explored while building each node's
// neighbor list, and Alpha is the robust-prune distance-slack factor.
type BuildParams struct {
	R     int
	L     int
	Alpha float32
}

// QueryParams shapes one BeamSearch call. K is the number of results the
// caller actually wants; BeamSize bounds the candidate list retained
// during the search and is the real cap on returned results. Limit caps
// the total number of distance computations (soft: the search returns its
// current best once exceeded). DegreeLimit caps how many neighbors of a
// visited node are fanned out, independent of the graph's own degree
// bound R. Cut prunes exploration once the result list reaches size K: a
// frontier candidate whose distance exceeds Cut times the worst retained
// result is not expanded.
type QueryParams struct {
	K           int
	BeamSize    int
	Cut         float32
	Limit       int
	DegreeLimit int
}

// Candidate is one beam-search hit, addressed by the local id of the
// SubsetView the Index was built over.
type Candidate struct {
	LocalID int32
	Dist    float32
}

type node struct {
	neighbors []int32
	mu        sync.RWMutex
}

// Index is a Vamana-style graph over one bucket's points. It never
// mutates the underlying points.SubsetView and is safe for concurrent
// BeamSearch calls once Build returns.
type Index struct {
	view   *points.SubsetView
	nodes  []node
	medoid int32
}

// Build constructs a Vamana-style graph over view. It runs two
// construction passes (alpha=1, then alpha=params.Alpha) in the manner of
// DiskANN/Vamana: the first dense pass establishes short-range edges, the
// second relaxed pass keeps the long-range edges a pure greedy prune would
// have discarded. When params.Alpha is 1 the second pass would repeat the
// first, so only one pass runs. Build runs entirely on the calling goroutine; the
// TreeBuilder parallelizes across buckets, not within one bucket's build.
func Build(view *points.SubsetView, params BuildParams) *Index {
	n := view.Len()
	idx := &Index{view: view, nodes: make([]node, n)}
	if n == 0 {
		return idx
	}
	idx.medoid = medoid(view)
	if n == 1 {
		return idx
	}

	order := rand.Perm(n)
	idx.pass(order, params, 1.0)
	if params.Alpha != 1.0 {
		idx.pass(order, params, params.Alpha)
	}
	return idx
}

func (idx *Index) pass(order []int, params BuildParams, alpha float32) {
	for _, i := range order {
		id := int32(i)
		q := idx.view.Get(i)

		found := idx.search(q, idx.medoid, params.L, id, 0, 0, 0)
		items := make([]candidate, 0, found.Len()+len(idx.nodes[id].neighbors))
		for found.Len() > 0 {
			items = append(items, heap.Pop(found).(candidate))
		}

		idx.nodes[id].mu.Lock()
		existing := idx.nodes[id].neighbors
		idx.nodes[id].mu.Unlock()
		for _, nb := range existing {
			items = append(items, candidate{id: nb, dist: vec.L2(q, idx.view.Get(int(nb)))})
		}

		picked := robustPrune(id, items, alpha, params.R, idx.view)

		idx.nodes[id].mu.Lock()
		idx.nodes[id].neighbors = picked
		idx.nodes[id].mu.Unlock()

		for _, nb := range picked {
			idx.addBackEdge(nb, id, alpha, params.R)
		}
	}
}

// addBackEdge adds id as a neighbor of nb, re-pruning nb's list down to R
// with the same robust-prune rule if it overflows.
func (idx *Index) addBackEdge(nb, id int32, alpha float32, r int) {
	idx.nodes[nb].mu.Lock()
	defer idx.nodes[nb].mu.Unlock()

	for _, existing := range idx.nodes[nb].neighbors {
		if existing == id {
			return
		}
	}
	idx.nodes[nb].neighbors = append(idx.nodes[nb].neighbors, id)
	if len(idx.nodes[nb].neighbors) <= r {
		return
	}

	q := idx.view.Get(int(nb))
	items := make([]candidate, len(idx.nodes[nb].neighbors))
	for i, other := range idx.nodes[nb].neighbors {
		items[i] = candidate{id: other, dist: vec.L2(q, idx.view.Get(int(other)))}
	}
	idx.nodes[nb].neighbors = robustPrune(nb, items, alpha, r, idx.view)
}

// BeamSearch runs a bounded beam search from the graph's medoid, returning
// up to qp.BeamSize candidates sorted by ascending distance.
func (idx *Index) BeamSearch(q vec.Vector, qp QueryParams) []Candidate {
	if len(idx.nodes) == 0 {
		return nil
	}
	listSize := qp.BeamSize
	if listSize <= 0 {
		listSize = qp.K
	}
	if listSize <= 0 {
		return nil
	}

	results := idx.search(q, idx.medoid, listSize, -1, qp.Limit, qp.DegreeLimit, qp.Cut, qp.K)
	out := make([]Candidate, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		c := heap.Pop(results).(candidate)
		out[i] = Candidate{LocalID: c.id, Dist: c.dist}
	}
	return out
}

type candidate struct {
	id   int32
	dist float32
}

// candidateQueue is a min-heap over distance: the search frontier, always
// expanded closest-first.
type candidateQueue []candidate

func (cq candidateQueue) Len() int            { return len(cq) }
func (cq candidateQueue) Less(i, j int) bool  { return cq[i].dist < cq[j].dist }
func (cq candidateQueue) Swap(i, j int)       { cq[i], cq[j] = cq[j], cq[i] }
func (cq *candidateQueue) Push(x any)         { *cq = append(*cq, x.(candidate)) }
func (cq *candidateQueue) Pop() any {
	old := *cq
	n := len(old)
	item := old[n-1]
	*cq = old[0 : n-1]
	return item
}

// resultQueue is a max-heap over distance: the bounded retained result
// list, so the worst candidate is always at the root and cheap to evict.
type resultQueue []candidate

func (rq resultQueue) Len() int            { return len(rq) }
func (rq resultQueue) Less(i, j int) bool  { return rq[i].dist > rq[j].dist }
func (rq resultQueue) Swap(i, j int)       { rq[i], rq[j] = rq[j], rq[i] }
func (rq *resultQueue) Push(x any)         { *rq = append(*rq, x.(candidate)) }
func (rq *resultQueue) Pop() any {
	old := *rq
	n := len(old)
	item := old[n-1]
	*rq = old[0 : n-1]
	return item
}

// search is the shared greedy beam-search core used by both construction
// (unbounded limit/degree, exclude the node under construction) and
// BeamSearch (soft distance-computation and degree caps, no exclusion).
// cutK, when nonzero, is the K used for the Cut pruning rule; it is
// ignored during construction.
func (idx *Index) search(q vec.Vector, start int32, listSize int, exclude int32, limit, degreeLimit int, cut float32, cutK ...int) *resultQueue {
	k := 0
	if len(cutK) > 0 {
		k = cutK[0]
	}

	visited := make(map[int32]bool, listSize*2)
	frontier := &candidateQueue{}
	heap.Init(frontier)
	results := &resultQueue{}
	heap.Init(results)

	seed := candidate{id: start, dist: vec.L2(q, idx.view.Get(int(start)))}
	visited[start] = true
	heap.Push(frontier, seed)
	if start != exclude {
		heap.Push(results, seed)
	}

	distComputations := 1
	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(candidate)

		if cut > 0 && k > 0 && results.Len() >= k && cur.dist > cut*(*results)[0].dist {
			break
		}

		idx.nodes[cur.id].mu.RLock()
		neighbors := idx.nodes[cur.id].neighbors
		idx.nodes[cur.id].mu.RUnlock()

		if degreeLimit > 0 && len(neighbors) > degreeLimit {
			neighbors = neighbors[:degreeLimit]
		}

		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true

			if limit > 0 && distComputations >= limit {
				return results
			}
			d := vec.L2(q, idx.view.Get(int(nb)))
			distComputations++

			if results.Len() < listSize || d < (*results)[0].dist {
				heap.Push(frontier, candidate{id: nb, dist: d})
				if nb != exclude {
					heap.Push(results, candidate{id: nb, dist: d})
					if results.Len() > listSize {
						heap.Pop(results)
					}
				}
			}
		}
	}
	return results
}

// robustPrune implements the Vamana alpha-robust-prune rule: repeatedly
// take the closest remaining candidate as a neighbor, then drop any other
// candidate p' for which alpha*dist(picked, p') < dist(node, p'), since
// picked already covers that direction well enough within the slack alpha
// allows. Stops once r neighbors are picked or candidates are exhausted.
func robustPrune(id int32, candidates []candidate, alpha float32, r int, view *points.SubsetView) []int32 {
	items := make([]candidate, len(candidates))
	copy(items, candidates)
	removed := make([]bool, len(items))

	// selection sort by distance, ascending; small R makes this cheaper
	// than re-heapifying after every removal.
	for i := range items {
		best := i
		for j := i + 1; j < len(items); j++ {
			if items[j].dist < items[best].dist {
				best = j
			}
		}
		items[i], items[best] = items[best], items[i]
	}

	picked := make([]int32, 0, r)
	for i := range items {
		if removed[i] || items[i].id == id {
			continue
		}
		picked = append(picked, items[i].id)
		if len(picked) >= r {
			break
		}

		pv := view.Get(int(items[i].id))
		for j := i + 1; j < len(items); j++ {
			if removed[j] {
				continue
			}
			d := vec.L2(pv, view.Get(int(items[j].id)))
			if alpha*d < items[j].dist {
				removed[j] = true
			}
		}
	}
	return picked
}

// medoid approximates the graph's entry point as the point nearest the
// centroid of view, avoiding an O(n^2) exact medoid computation.
func medoid(view *points.SubsetView) int32 {
	n := view.Len()
	dim := view.Dim()
	centroid := make(vec.Vector, dim)
	for i := 0; i < n; i++ {
		p := view.Get(i)
		for d := 0; d < dim; d++ {
			centroid[d] += p[d]
		}
	}
	for d := 0; d < dim; d++ {
		centroid[d] /= float32(n)
	}

	best, bestDist := 0, float32(-1)
	for i := 0; i < n; i++ {
		d := vec.SquaredL2(centroid, view.Get(i))
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return int32(best)
}
