package coverage

import (
	"log/slog"

	"github.com/covfuzz/covfuzz/pkg/types"
)

// PerFunctionPathCoverage composes block coverage, edge coverage and
// the path reducer to track one digest set per function. Grounded
// algorithmically on
// original_source's per_function.rs.
type PerFunctionPathCoverage struct {
	idx   cfgLookup
	k     int
	block *BlockCoverage
	edge  *EdgeCoverage
	paths map[types.FunctionID]map[[16]byte]struct{}
	total int
	log   *slog.Logger
}

// NewPerFunctionPathCoverage builds the metric against an explicit
// CFG dependency, with no environment-variable reads at construction
// time — the CFG_FILE lookup happens once in the CLI layer and is
// threaded in here.
func NewPerFunctionPathCoverage(idx cfgLookup, loopBound int, logger *slog.Logger) *PerFunctionPathCoverage {
	if loopBound <= 0 {
		loopBound = DefaultLoopBound
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PerFunctionPathCoverage{
		idx:   idx,
		k:     loopBound,
		block: NewBlockCoverage(),
		edge:  NewEdgeCoverage(),
		paths: make(map[types.FunctionID]map[[16]byte]struct{}),
		log:   logger,
	}
}

// Observe runs block and edge coverage over the raw trace, then runs
// the reducer and hashes each function instance's reduced blocks,
// returning the highest-ranking of new-block, new-edge, new-path
// (with edge's uniqueness), else NoCoverage(edge_uniqueness).
func (p *PerFunctionPathCoverage) Observe(t types.Trace) Feedback {
	blockFB := p.block.Observe(t)
	edgeFB := p.edge.Observe(t)

	sawNewPath := false
	if len(t) > 0 {
		for _, red := range Reduce(p.idx, t, p.k) {
			if red.Partial {
				p.log.Warn("per-function path: partial trace contributed to digest set",
					"function", red.Function)
			}
			digest := hashTrace(types.Trace(red.Blocks))
			set, ok := p.paths[red.Function]
			if !ok {
				set = make(map[[16]byte]struct{})
				p.paths[red.Function] = set
			}
			if _, seen := set[digest]; !seen {
				set[digest] = struct{}{}
				p.total++
				sawNewPath = true
			}
		}
	}

	switch {
	case blockFB.Kind == KindNewBlock:
		return blockFB
	case edgeFB.Kind == KindNewEdge:
		return edgeFB
	case sawNewPath:
		return NewPathFeedback(edgeFB.Uniqueness)
	default:
		return NoCoverage(edgeFB.Uniqueness)
	}
}

// Summary reports the running total of distinct reduced-path digests
// across all functions.
func (p *PerFunctionPathCoverage) Summary() any {
	return p.total
}

// Full reports the per-function digest-set sizes.
func (p *PerFunctionPathCoverage) Full() any {
	out := make(map[types.FunctionID]int, len(p.paths))
	for fn, set := range p.paths {
		out[fn] = len(set)
	}
	return out
}

func (p *PerFunctionPathCoverage) Name() string { return "perfunction" }

func (p *PerFunctionPathCoverage) Priority() int { return 50 }
