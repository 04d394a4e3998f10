// Package layout computes the nested bucket offsets that tile [0, n) at
// multiple resolutions, and the range -> (level, bucket-span) lookup that
// the query engine uses to pick a covering span for an arbitrary filter
// range.
package layout

// Offsets holds one non-decreasing offset slice per level. off[l] has
// length numBuckets(l)+1, off[l][0] == 0, off[l][last] == N. Level 0 is
// always the single root bucket [0, N).
type Offsets struct {
	Levels [][]int
}

// Build tiles [0, N) starting from a single root bucket. While the
// largest bucket in the deepest level exceeds cutoff, it adds a new level
// splitting every bucket of the deepest level into exactly splitFactor
// children, sized as evenly as possible: large = ceil(S/splitFactor),
// small = large-1, r = S - small*splitFactor larger children come first.
func Build(n, cutoff, splitFactor int) *Offsets {
	if n <= 0 {
		return &Offsets{Levels: [][]int{{0, 0}}}
	}

	root := []int{0, n}
	o := &Offsets{Levels: [][]int{root}}

	for largestBucketSize(o.Levels[len(o.Levels)-1]) > cutoff {
		last := o.Levels[len(o.Levels)-1]
		numBuckets := len(last) - 1
		next := make([]int, numBuckets*splitFactor+1)
		next[len(next)-1] = n

		for b := 0; b < numBuckets; b++ {
			start, end := last[b], last[b+1]
			size := end - start

			large := (size + splitFactor - 1) / splitFactor
			small := large - 1
			numLarger := size - small*splitFactor

			pos := start
			for i := 0; i < splitFactor; i++ {
				next[b*splitFactor+i] = pos
				if i < numLarger {
					pos += large
				} else {
					pos += small
				}
			}
		}

		o.Levels = append(o.Levels, next)
	}

	return o
}

func largestBucketSize(offsets []int) int {
	largest := 0
	for b := 0; b < len(offsets)-1; b++ {
		if size := offsets[b+1] - offsets[b]; size > largest {
			largest = size
		}
	}
	return largest
}

// spanAt computes the [bStart, bEnd) bucket-index span at one level's
// offsets that covers the sorted-id range [start, end).
func spanAt(offs []int, start, end int) (bStart, bEnd int) {
	numBuckets := len(offs) - 1
	bStart, bEnd = 0, numBuckets

	for b := 0; b < numBuckets; b++ {
		if offs[b] <= start && start < offs[b+1] {
			bStart = b
		}
		if offs[b] < end && end <= offs[b+1] {
			bEnd = b + 1
			break
		}
	}
	return bStart, bEnd
}

// SelectSpan finds the covering bucket span for [start, end).
//
// Level 0 is always the single whole-corpus bucket, so it never
// discriminates between queries and is never itself a useful answer once
// deeper levels exist. Starting from level 1, SelectSpan descends as long
// as the range keeps collapsing to a single bucket, remembering the
// deepest level where that held (this is the tight, cheap case the post-
// filter design notes call out: the range fits inside one bucket). The
// instant a level straddles multiple buckets:
//   - if a shallower level already gave a single-bucket match, that match
//     is the answer — descending further only widens the span;
//   - otherwise (the range has never collapsed to one bucket, even at the
//     shallowest split), the walk continues to the deepest level and
//     returns its straddling span, since there is no tighter level to
//     fall back to.
//
// A corpus with only one level (N <= cutoff) always returns that level's
// single root bucket.
func (o *Offsets) SelectSpan(start, end int) (level, bStart, bEnd int) {
	if len(o.Levels) == 1 {
		return 0, 0, 1
	}

	haveSingle := false
	var bestLevel, bestStart, bestEnd int

	for l := 1; l < len(o.Levels); l++ {
		sBucket, eBucket := spanAt(o.Levels[l], start, end)

		if eBucket-sBucket == 1 {
			haveSingle = true
			bestLevel, bestStart, bestEnd = l, sBucket, eBucket
			continue
		}

		if haveSingle {
			return bestLevel, bestStart, bestEnd
		}

		level, bStart, bEnd = l, sBucket, eBucket
	}

	if haveSingle {
		return bestLevel, bestStart, bestEnd
	}
	return level, bStart, bEnd
}

// NumBuckets returns the number of buckets at level l.
func (o *Offsets) NumBuckets(level int) int {
	return len(o.Levels[level]) - 1
}

// Bucket returns the [start, end) range of bucket b at level l.
func (o *Offsets) Bucket(level, b int) (start, end int) {
	offs := o.Levels[level]
	return offs[b], offs[b+1]
}

// Depth returns the number of levels.
func (o *Offsets) Depth() int { return len(o.Levels) }
