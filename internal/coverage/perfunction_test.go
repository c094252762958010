package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Scenario 1: single function, one loop. After a warm-up observation
// has recorded its blocks, edges and reduced-path digest, observing
// the same trace again reports NoCoverage.
func TestPerFunctionPathScenario1(t *testing.T) {
	c := newFakeCFG()
	c.addFunction(1, 3)
	p := NewPerFunctionPathCoverage(c, 2, nil)

	tr := trace(1, 2, 2, 2, 3)
	p.Observe(tr) // warm up block/edge state
	fb := p.Observe(tr)
	assert.Equal(t, KindNoCoverage, fb.Kind, "second observation of the same trace is not new")
}

func TestPerFunctionPathFirstObservationIsNewBlockAndRecordsDigest(t *testing.T) {
	c := newFakeCFG()
	c.addFunction(1, 3)
	p := NewPerFunctionPathCoverage(c, 2, nil)

	fb := p.Observe(trace(1, 2, 2, 2, 3))
	// block coverage dominates on a first observation (all blocks new)
	assert.Equal(t, KindNewBlock, fb.Kind)
	assert.Equal(t, 1, p.Summary())
}

func TestPerFunctionPathLongerLoopCollapsesToSameDigest(t *testing.T) {
	c := newFakeCFG()
	c.addFunction(1, 3)
	p := NewPerFunctionPathCoverage(c, 2, nil)

	p.Observe(trace(1, 2, 2, 2, 3))       // reduces to [1,2,2,3]
	fb := p.Observe(trace(1, 2, 2, 2, 2, 3)) // still reduces to [1,2,2,3] (K=2 bound)

	assert.Equal(t, KindNoCoverage, fb.Kind, "same reduced digest as before, no new block/edge either")
	assert.Equal(t, 1, p.Summary())
}

func TestPerFunctionPathEmptyTraceIsNoCoverage(t *testing.T) {
	c := newFakeCFG()
	c.addFunction(1, 3)
	p := NewPerFunctionPathCoverage(c, 2, nil)

	fb := p.Observe(nil)
	assert.Equal(t, KindNoCoverage, fb.Kind)
	assert.Equal(t, UniquenessSentinel, fb.Uniqueness)
	assert.Equal(t, 0, p.Summary())
}

func TestPerFunctionPathSelfRecursionYieldsTwoDigests(t *testing.T) {
	c := newFakeCFG()
	c.addFunction(1, 2)
	p := NewPerFunctionPathCoverage(c, 2, nil)

	p.Observe(trace(1, 1, 2, 2))
	assert.Equal(t, 2, p.Summary(), "inner [1,2] and outer [1,1,2] are distinct digests")
}
