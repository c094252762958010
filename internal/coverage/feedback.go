// Package coverage implements the pluggable coverage metrics, the
// per-function path reducer, and the feedback ordering that together
// turn a raw block-id trace into a fuzzing-queue priority.
package coverage

import "fmt"

// Kind distinguishes the variants of Feedback.
type Kind int

const (
	KindNewBlock Kind = iota
	KindNewEdge
	KindNewPath
	KindNoCoverage
	KindOld
)

// rank implements the bucket order: NewBlock > NewEdge >
// NewPath > NoCoverage > Old. Higher rank means higher queue priority.
func (k Kind) rank() int {
	switch k {
	case KindNewBlock:
		return 5
	case KindNewEdge:
		return 4
	case KindNewPath:
		return 3
	case KindNoCoverage:
		return 2
	case KindOld:
		return 1
	default:
		panic(fmt.Sprintf("coverage: unknown feedback kind %d", k))
	}
}

// Feedback is the tagged-variant result of observing one trace under
// one metric. Old wraps a previously saved Feedback rehydrated
// from a queue filename; its Uniqueness and Rank recurse into Inner.
type Feedback struct {
	Kind       Kind
	Uniqueness int
	Inner      *Feedback // non-nil only when Kind == KindOld
}

// NewBlockFeedback, NewEdgeFeedback and NewPathFeedback report that this trace covered
// something previously unseen at the given rarity.
func NewBlockFeedback(uniqueness int) Feedback { return Feedback{Kind: KindNewBlock, Uniqueness: uniqueness} }
func NewEdgeFeedback(uniqueness int) Feedback  { return Feedback{Kind: KindNewEdge, Uniqueness: uniqueness} }
func NewPathFeedback(uniqueness int) Feedback  { return Feedback{Kind: KindNewPath, Uniqueness: uniqueness} }

// NoCoverage reports that the trace touched nothing new, but
// uniqueness is still defined (it may be ∞-like for empty traces).
func NoCoverage(uniqueness int) Feedback {
	return Feedback{Kind: KindNoCoverage, Uniqueness: uniqueness}
}

// Old wraps a previously saved Feedback re-hydrated from a queue
// filename, preserving the original variant and uniqueness rather
// than re-scoring on reload.
func Old(inner Feedback) Feedback {
	return Feedback{Kind: KindOld, Inner: &inner}
}

// UniquenessSentinel stands in for "minimum hit count over an empty
// trace": empty traces yield NoCoverage(∞) from every metric.
const UniquenessSentinel = int(^uint(0) >> 1) // max int, i.e. infinity

// Rank returns the bucket rank used by the priority projection,
// recursing through Old to its wrapped variant.
func (f Feedback) Rank() int {
	if f.Kind == KindOld {
		return f.Inner.Rank()
	}
	return f.Kind.rank()
}

// Rarity returns the uniqueness value used for the ascending
// within-bucket tie-break, recursing through Old.
func (f Feedback) Rarity() int {
	if f.Kind == KindOld {
		return f.Inner.Rarity()
	}
	return f.Uniqueness
}

// IsNew reports whether f is one of the new-* variants (including
// through an Old wrapper, since "triggers new coverage" looks at
// the wrapped variant).
func (f Feedback) IsNew() bool {
	switch f.Kind {
	case KindNewBlock, KindNewEdge, KindNewPath:
		return true
	case KindOld:
		return f.Inner.IsNew()
	default:
		return false
	}
}

// Less implements the total order: Old ranks below every unwrapped
// variant, and two Old values compare by their wrapped feedback;
// otherwise higher rank wins, and within a bucket lower Rarity wins
// (rarer is higher priority). It returns true when f has strictly
// lower priority than g.
func (f Feedback) Less(g Feedback) bool {
	fOld, gOld := f.Kind == KindOld, g.Kind == KindOld
	if fOld != gOld {
		return fOld
	}
	if fOld {
		return f.Inner.Less(*g.Inner)
	}
	if f.Rank() != g.Rank() {
		return f.Rank() < g.Rank()
	}
	return f.Rarity() > g.Rarity()
}

func (f Feedback) String() string {
	switch f.Kind {
	case KindNewBlock:
		return fmt.Sprintf("NewBlock{%d}", f.Uniqueness)
	case KindNewEdge:
		return fmt.Sprintf("NewEdge{%d}", f.Uniqueness)
	case KindNewPath:
		return fmt.Sprintf("NewPath{%d}", f.Uniqueness)
	case KindNoCoverage:
		return fmt.Sprintf("NoCoverage(%d)", f.Uniqueness)
	case KindOld:
		return fmt.Sprintf("Old(%s)", f.Inner)
	default:
		return "Feedback(?)"
	}
}
