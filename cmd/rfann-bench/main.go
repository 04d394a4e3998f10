// Command rfann-bench is the combined driver: it builds a B-WST over a
// vector corpus, runs a batch of range-filtered queries at each requested
// L_search, and reports construction/query timing, thread high-water
// marks, and recall against a supplied ground truth file.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/arcwave-labs/rfann/internal/bwst"
	"github.com/arcwave-labs/rfann/internal/graph"
	"github.com/arcwave-labs/rfann/internal/ioformats"
	"github.com/arcwave-labs/rfann/internal/query"
	"github.com/arcwave-labs/rfann/internal/telemetry"
	"github.com/arcwave-labs/rfann/pkg/logger"
	"github.com/arcwave-labs/rfann/pkg/rferrors"
	"github.com/arcwave-labs/rfann/pkg/vec"
)

const usage = `usage: rfann-bench data.bin filters.csv queries.bin query_filters.csv groundtruth.ivecs R L alpha cutoff split_factor k L_search_list threads`

const sampleInterval = 2 * time.Millisecond

// Query-time frontier-pruning defaults. These aren't exposed as CLI
// positional arguments, so they're hardcoded at the values the original
// benchmark tool uses: a 1.35x cut factor, and limit/degree-limit caps
// high enough to never bind on realistic corpora.
const (
	defaultCut         = 1.35
	defaultLimit       = 10000000
	defaultDegreeLimit = 10000
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logger.Error("rfann-bench failed", "err", err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
}

type args struct {
	dataPath, filtersPath, queriesPath, queryFiltersPath, groundTruthPath string
	r, l, cutoff, splitFactor, k, threads                                 int
	alpha                                                                 float32
	lSearchList                                                           []int
}

func parseArgs(raw []string) (args, error) {
	var a args
	if len(raw) != 13 {
		return a, rferrors.New(rferrors.InputShape, "want 13 positional arguments, got %d", len(raw))
	}
	a.dataPath, a.filtersPath, a.queriesPath, a.queryFiltersPath, a.groundTruthPath = raw[0], raw[1], raw[2], raw[3], raw[4]

	ints := make([]int, 5)
	for i, s := range []string{raw[5], raw[6], raw[8], raw[9], raw[10]} {
		v, err := strconv.Atoi(s)
		if err != nil {
			return a, rferrors.New(rferrors.Parse, "argument %q: %w", s, err)
		}
		ints[i] = v
	}
	a.r, a.l, a.cutoff, a.splitFactor, a.k = ints[0], ints[1], ints[2], ints[3], ints[4]

	alpha, err := strconv.ParseFloat(raw[7], 32)
	if err != nil {
		return a, rferrors.New(rferrors.Parse, "alpha %q: %w", raw[7], err)
	}
	a.alpha = float32(alpha)

	lSearchList, err := ioformats.ParseLSearchList(raw[11])
	if err != nil {
		return a, err
	}
	a.lSearchList = lSearchList

	threads, err := strconv.Atoi(raw[12])
	if err != nil {
		return a, rferrors.New(rferrors.Parse, "threads %q: %w", raw[12], err)
	}
	a.threads = threads

	return a, nil
}

func run(raw []string) error {
	a, err := parseArgs(raw)
	if err != nil {
		return err
	}

	vectors, n, dim, err := ioformats.ReadBin(a.dataPath)
	if err != nil {
		return err
	}
	filters, err := ioformats.ReadFilterCSV(a.filtersPath)
	if err != nil {
		return err
	}
	if len(filters) != n {
		return rferrors.New(rferrors.InputShape, "%s has %d lines, want %d to match %s", a.filtersPath, len(filters), n, a.dataPath)
	}

	queries, qn, qdim, err := ioformats.ReadBin(a.queriesPath)
	if err != nil {
		return err
	}
	if qdim != dim {
		return rferrors.New(rferrors.InputShape, "%s has dimension %d, want %d to match %s", a.queriesPath, qdim, dim, a.dataPath)
	}

	queryFilters, err := ioformats.ReadQueryFilterCSV(a.queryFiltersPath)
	if err != nil {
		return err
	}
	if len(queryFilters) != qn {
		return rferrors.New(rferrors.InputShape, "%s has %d lines, want %d to match %s", a.queryFiltersPath, len(queryFilters), qn, a.queriesPath)
	}

	groundTruth, err := ioformats.ReadIvecs(a.groundTruthPath)
	if err != nil {
		return err
	}
	if len(groundTruth) != qn {
		return rferrors.New(rferrors.InputShape, "%s has %d records, want %d to match %s", a.groundTruthPath, len(groundTruth), qn, a.queriesPath)
	}

	bp := graph.BuildParams{R: a.r, L: a.l, Alpha: a.alpha}

	buildObs, err := telemetry.NewThreadObserver(sampleInterval)
	if err != nil {
		return fmt.Errorf("rfann-bench: %w", err)
	}
	buildObs.Start()
	buildStart := time.Now()
	index := bwst.Build(vectors, dim, filters, a.cutoff, a.splitFactor, bp, a.threads)
	buildElapsed := time.Since(buildStart)
	buildThreads := buildObs.Stop()

	queryObs, err := telemetry.NewThreadObserver(sampleInterval)
	if err != nil {
		return fmt.Errorf("rfann-bench: %w", err)
	}
	queryObs.Start()
	reportLines := make([]string, len(a.lSearchList))
	for i, lSearch := range a.lSearchList {
		reportLines[i] = runQueries(index, queries, dim, queryFilters, groundTruth, a.k, lSearch)
	}
	queryThreads := queryObs.Stop()

	vmPeak, vmHWM, err := telemetry.MemoryFootprint()
	if err != nil {
		return fmt.Errorf("rfann-bench: %w", err)
	}

	fmt.Println(vmPeak)
	fmt.Println(vmHWM)
	fmt.Printf("Maximum number of threads during index construction: %d\n", buildThreads)
	fmt.Printf("Maximum number of threads during query execution: %d\n", queryThreads)
	fmt.Printf("Index construction time: %.3f s\n", buildElapsed.Seconds())
	for _, line := range reportLines {
		fmt.Println(line)
	}
	return nil
}

// runQueries runs every query at one L_search (beam size) and returns the
// required "L_search: ... QPS: ... Recall: ..." report line.
func runQueries(index *bwst.BWST, queries []float32, dim int, queryFilters []ioformats.FilterRange, groundTruth [][]int32, k, lSearch int) string {
	qn := len(queryFilters)
	qp := graph.QueryParams{
		K:           k,
		BeamSize:    lSearch,
		Cut:         defaultCut,
		Limit:       defaultLimit,
		DegreeLimit: defaultDegreeLimit,
	}

	var hits, total int
	start := time.Now()
	for i := 0; i < qn; i++ {
		q := vec.Vector(queries[i*dim : (i+1)*dim])
		got := index.QuerySequential(q, queryFilters[i].Lo, queryFilters[i].Hi, qp)
		hits += countHits(got, groundTruth[i], k)
		total += truthSize(groundTruth[i], k)
	}
	elapsed := time.Since(start)

	qps := float64(qn) / elapsed.Seconds()
	recall := 0.0
	if total > 0 {
		recall = float64(hits) / float64(total)
	}
	return fmt.Sprintf("L_search: %d QPS: %.3f Recall: %.5f", lSearch, qps, recall)
}

// truthSize is the number of ground-truth neighbors counted for recall:
// the first k, or fewer if the ground-truth row itself is shorter.
func truthSize(truth []int32, k int) int {
	if len(truth) < k {
		return len(truth)
	}
	return k
}

func countHits(got []query.Result, truth []int32, k int) int {
	n := truthSize(truth, k)
	want := make(map[int32]bool, n)
	for _, id := range truth[:n] {
		want[id] = true
	}
	hits := 0
	for _, r := range got {
		if want[r.OriginalID] {
			hits++
		}
	}
	return hits
}
