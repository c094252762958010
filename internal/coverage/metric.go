package coverage

import "github.com/covfuzz/covfuzz/pkg/types"

// Metric is the capability set every coverage metric implements: one
// tagged variant per metric rather than a class hierarchy. Observe
// is the only mutating method; state belongs
// exclusively to the metric that owns it.
type Metric interface {
	Observe(t types.Trace) Feedback
	Summary() any
	Full() any
	Name() string
	Priority() int
}

// Aggregator runs an ordered sequence of metrics over the same trace
// and reports each metric's Feedback by name. It holds no coverage
// state of its own and produces no feedback of its own; the engine
// projects the result via use_cov.
type Aggregator struct {
	order   []string
	metrics map[string]Metric
}

// NewAggregator builds an aggregator over metrics, preserving the
// given order for Observe's iteration (insertion order matters for
// any metric with side effects observable across calls, e.g. logging).
func NewAggregator(metrics ...Metric) *Aggregator {
	a := &Aggregator{metrics: make(map[string]Metric, len(metrics))}
	for _, m := range metrics {
		a.order = append(a.order, m.Name())
		a.metrics[m.Name()] = m
	}
	return a
}

// Observe invokes every metric in insertion order and returns the
// name→Feedback map.
func (a *Aggregator) Observe(t types.Trace) map[string]Feedback {
	out := make(map[string]Feedback, len(a.order))
	for _, name := range a.order {
		out[name] = a.metrics[name].Observe(t)
	}
	return out
}

// Metric looks up a registered metric by name, for Full()/Summary()
// reporting.
func (a *Aggregator) Metric(name string) (Metric, bool) {
	m, ok := a.metrics[name]
	return m, ok
}

// Names returns the registered metric names in insertion order.
func (a *Aggregator) Names() []string {
	return append([]string(nil), a.order...)
}
