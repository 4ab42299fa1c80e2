package scanner

import (
	"fmt"
	"iter"
	"slices"

	"github.com/biggeezerdevelopment/shardjson/internal/jsonerr"
)

// Range is the half-open byte range [Start, End) of one shard.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start
}

const (
	classCut uint8 = 1 << iota
	classQuote
	classBackslash
)

// classifier marks bytes a shard may start at (whitespace and single
// character structural tokens) plus the two bytes that drive string state.
var classifier [256]uint8

func init() {
	for _, c := range []byte("{}[]:, \t\n\r") {
		classifier[c] = classCut
	}
	classifier['"'] = classQuote
	classifier['\\'] = classBackslash
}

const (
	splitOutside = iota
	splitInString
	splitEscape
)

// Split divides src into n contiguous ranges whose boundaries never fall
// inside a string literal or an escape pair. Boundary k aims at k*len/n and
// settles on the closest legal cut found in a single pass, ties going to the
// earlier cut. If some boundary has no legal cut within one shard width of
// its target, Split returns a KindPartition error instead of guessing.
func Split(src []byte, n int) ([]Range, error) {
	if n <= 1 || len(src) == 0 {
		return []Range{{Start: 0, End: len(src)}}, nil
	}
	width := len(src) / n
	if width == 0 {
		return nil, jsonerr.New(jsonerr.KindPartition, -1,
			fmt.Sprintf("%d bytes cannot be split into %d shards", len(src), n))
	}

	best := make([]int, n-1)
	dist := make([]int, n-1)
	for i := range best {
		best[i] = -1
	}

	consider := func(i int) {
		// cuts in the tail past the last target still count for it
		k := min(i/width, n-1)
		for _, j := range [2]int{k, k + 1} {
			if j < 1 || j >= n {
				continue
			}
			d := i - j*width
			if d < 0 {
				d = -d
			}
			if best[j-1] < 0 || d < dist[j-1] {
				best[j-1], dist[j-1] = i, d
			}
		}
	}

	for i := range cuts(src) {
		consider(i)
	}

	for j := range best {
		target := (j + 1) * width
		if best[j] < 0 || dist[j] > width {
			return nil, jsonerr.New(jsonerr.KindPartition, target,
				fmt.Sprintf("no safe boundary for shard %d of %d", j+1, n))
		}
	}
	slices.Sort(best)

	ranges := make([]Range, n)
	start := 0
	for j, cut := range best {
		ranges[j] = Range{Start: start, End: cut}
		start = cut
	}
	ranges[n-1] = Range{Start: start, End: len(src)}
	return ranges, nil
}

// cuts yields every offset outside string literals where a shard may start.
func cuts(src []byte) iter.Seq[int] {
	return func(yield func(int) bool) {
		state := splitOutside
		for i, c := range src {
			switch state {
			case splitOutside:
				switch classifier[c] {
				case classQuote:
					state = splitInString
				case classCut:
					if !yield(i) {
						return
					}
				}
			case splitInString:
				switch classifier[c] {
				case classQuote:
					state = splitOutside
				case classBackslash:
					state = splitEscape
				}
			case splitEscape:
				state = splitInString
			}
		}
	}
}

// countCuts counts the legal cuts in src, stopping at limit.
func countCuts(src []byte, limit int) int {
	n := 0
	for range cuts(src) {
		if n++; n >= limit {
			break
		}
	}
	return n
}
