package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeCoverageFirstObservationIsNew(t *testing.T) {
	e := NewEdgeCoverage()
	fb := e.Observe(trace(1, 2, 3))
	assert.Equal(t, KindNewEdge, fb.Kind)
	assert.Equal(t, 1, fb.Uniqueness)
	assert.Equal(t, 2, e.Keys())
}

func TestEdgeCoverageReObservationIsNoCoverage(t *testing.T) {
	e := NewEdgeCoverage()
	e.Observe(trace(1, 2, 3))

	fb := e.Observe(trace(1, 2, 3))
	assert.Equal(t, KindNoCoverage, fb.Kind)
	assert.Equal(t, 2, fb.Uniqueness)
}

func TestEdgeCoverageSingleBlockTraceHasNoEdges(t *testing.T) {
	e := NewEdgeCoverage()
	fb := e.Observe(trace(1))
	assert.Equal(t, KindNoCoverage, fb.Kind)
	assert.Equal(t, UniquenessSentinel, fb.Uniqueness)
	assert.Equal(t, 0, e.Keys())
}

func TestEdgeCoverageKeysBoundedByTraceLength(t *testing.T) {
	e := NewEdgeCoverage()
	e.Observe(trace(1, 2, 3, 4))
	assert.LessOrEqual(t, e.Keys(), 3) // len(T)-1
}
