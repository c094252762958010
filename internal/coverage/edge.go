package coverage

import (
	"fmt"

	"github.com/covfuzz/covfuzz/pkg/types"
)

// EdgeCoverage tracks a hit count per (src,dst) block transition.
// Grounded on original_source's edge.rs, generalized from
// its abbreviated two-variant sketch to the full uniqueness/Feedback
// contract the other metrics share.
type EdgeCoverage struct {
	hits map[types.Edge]int
}

// NewEdgeCoverage returns an empty edge-coverage metric.
func NewEdgeCoverage() *EdgeCoverage {
	return &EdgeCoverage{hits: make(map[types.Edge]int)}
}

// Observe increments the hit count of every adjacent pair in t and
// reports NewEdge if any pair was seen for the first time, else
// NoCoverage. A trace of fewer than two blocks contains no edges.
func (e *EdgeCoverage) Observe(t types.Trace) Feedback {
	if len(t) < 2 {
		return NoCoverage(UniquenessSentinel)
	}
	sawNew := false
	uniqueness := UniquenessSentinel
	for i := 0; i < len(t)-1; i++ {
		edge := types.Edge{Src: t[i], Dst: t[i+1]}
		e.hits[edge]++
		count := e.hits[edge]
		if count == 1 {
			sawNew = true
		}
		if count < uniqueness {
			uniqueness = count
		}
	}
	if sawNew {
		return NewEdgeFeedback(uniqueness)
	}
	return NoCoverage(uniqueness)
}

// Summary reports the number of distinct edges seen so far.
func (e *EdgeCoverage) Summary() any {
	return len(e.hits)
}

// Full reports the complete edge→hit-count table, keyed by
// "src->dst" strings so the table can be written as JSON.
func (e *EdgeCoverage) Full() any {
	out := make(map[string]int, len(e.hits))
	for edge, n := range e.hits {
		out[fmt.Sprintf("%d->%d", edge.Src, edge.Dst)] = n
	}
	return out
}

func (e *EdgeCoverage) Name() string { return "edge" }

func (e *EdgeCoverage) Priority() int { return 90 }

// Keys returns the number of distinct edges observed, for invariant
// tests: edge metric state grows by at most len(T)-1 keys.
func (e *EdgeCoverage) Keys() int {
	return len(e.hits)
}
