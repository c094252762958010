package coverage

// Projection is the driver-level decision derived from aggregated
// feedback restricted to the user's use_cov subset.
type Projection struct {
	TriggersNew        bool
	Priority           int
	DominantMetric     string
	DominantUniqueness int
	Feedback           Feedback
}

// Project examines feedback only from metrics named in useCov (in the
// given order, which also breaks priority ties deterministically —
// the tie-break is otherwise unspecified). triggersNew is true if any
// projected feedback is a new-* variant; priority is the max bucket
// rank across the subset; the dominant metric is whichever named
// metric achieved that max rank first in iteration order.
func Project(feedback map[string]Feedback, useCov []string) Projection {
	var p Projection
	for _, name := range useCov {
		fb, ok := feedback[name]
		if !ok {
			continue
		}
		if fb.IsNew() {
			p.TriggersNew = true
		}
		if fb.Rank() > p.Priority || p.DominantMetric == "" {
			p.Priority = fb.Rank()
			p.DominantMetric = name
			p.DominantUniqueness = fb.Rarity()
			p.Feedback = fb
		}
	}
	return p
}
