package coverage

import "github.com/covfuzz/covfuzz/pkg/types"

// DefaultLoopBound is K, the loop-iteration unroll bound.
const DefaultLoopBound = 2

// Reduction is one function instance's canonical reduced trace, as
// produced by Reduce. Partial is set when the trace ran out before an
// exit block was observed. Partial traces still contribute a
// digest, flagged here so the caller can warn.
type Reduction struct {
	Function types.FunctionID
	Blocks   []types.BlockID
	Partial  bool
}

// loopEntry is one loop_stack record: how many separated occurrences
// of a block have been kept, and where the most recent one landed in
// the reduced buffer.
type loopEntry struct {
	count     int
	lastIndex int
}

// frame is one active reduce_fn invocation. reduceOne keeps an
// explicit slice of *frame as its call stack instead of recursing on
// the host stack, so that a hostile trace cannot blow it.
type frame struct {
	fn        types.FunctionID
	exits     map[types.BlockID]struct{}
	reduced   []types.BlockID
	loopStack map[types.BlockID]loopEntry
}

func newFrame(idx cfgLookup, fn types.FunctionID, entryBlock types.BlockID) *frame {
	return &frame{
		fn:        fn,
		exits:     idx.ExitsOf(fn),
		reduced:   []types.BlockID{entryBlock},
		loopStack: make(map[types.BlockID]loopEntry),
	}
}

func (f *frame) finalize(partial bool) Reduction {
	blocks := append([]types.BlockID(nil), f.reduced...)
	return Reduction{Function: f.fn, Blocks: blocks, Partial: partial}
}

// cfgLookup is the minimal view of cfg.Index the reducer needs; kept
// as its own interface so the reducer does not import the cfg package
// directly and so unit tests can supply a tiny fake CFG.
type cfgLookup interface {
	IsFunctionEntry(b types.BlockID) bool
	IsExit(fn types.FunctionID, b types.BlockID) bool
	ExitsOf(fn types.FunctionID) map[types.BlockID]struct{}
}

// Reduce walks trace left to right, producing one Reduction per
// function instance encountered — including nested calls — with
// K-bounded loop peeling. k is the loop
// unroll bound; pass DefaultLoopBound unless a test needs otherwise.
func Reduce(idx cfgLookup, trace types.Trace, k int) []Reduction {
	cursor := 0
	var results []Reduction
	for cursor < len(trace) {
		results = append(results, reduceOne(idx, trace, &cursor, k)...)
	}
	return results
}

// reduceOne consumes one top-level function instance (and everything
// it calls, transitively) starting at trace[*cursor], advancing
// *cursor past it, and returns a Reduction for every function
// instance it touched.
func reduceOne(idx cfgLookup, trace types.Trace, cursor *int, k int) []Reduction {
	var results []Reduction
	var stack []*frame

	entry := trace[*cursor]
	*cursor++
	fn := types.FunctionID(entry)
	top := newFrame(idx, fn, entry)
	if idx.IsExit(fn, entry) {
		// single-block function: step 2 short circuit.
		return []Reduction{top.finalize(false)}
	}
	stack = append(stack, top)

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if *cursor >= len(trace) {
			// Cursor starved mid-function: every active frame is
			// partially executed, innermost first.
			for len(stack) > 0 {
				f := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				results = append(results, f.finalize(true))
			}
			return results
		}

		b := trace[*cursor]

		switch {
		case idx.IsFunctionEntry(b):
			top.reduced = append(top.reduced, b)
			*cursor++
			calleeFn := types.FunctionID(b)
			callee := newFrame(idx, calleeFn, b)
			if idx.IsExit(calleeFn, b) {
				results = append(results, callee.finalize(false))
				continue
			}
			stack = append(stack, callee)

		case idx.IsExit(top.fn, b):
			top.reduced = append(top.reduced, b)
			*cursor++
			stack = stack[:len(stack)-1]
			results = append(results, top.finalize(false))

		default:
			reduceLoopStep(top, b, k)
			*cursor++
		}
	}
	return results
}

// reduceLoopStep applies a three-way loop_stack rule to one
// intraprocedural, non-exit block b within the current frame.
func reduceLoopStep(f *frame, b types.BlockID, k int) {
	entry, seen := f.loopStack[b]
	switch {
	case !seen:
		f.loopStack[b] = loopEntry{count: 1, lastIndex: len(f.reduced)}
		f.reduced = append(f.reduced, b)

	case entry.count < k:
		preLastIndex := entry.lastIndex
		f.loopStack[b] = loopEntry{count: entry.count + 1, lastIndex: len(f.reduced)}
		for key, le := range f.loopStack {
			if key != b && le.lastIndex > preLastIndex {
				delete(f.loopStack, key)
			}
		}
		f.reduced = append(f.reduced, b)

	default: // entry.count >= k: collapse this repetition.
		truncTo := entry.lastIndex + 1
		f.reduced = f.reduced[:truncTo]
		for key, le := range f.loopStack {
			if le.lastIndex >= truncTo {
				delete(f.loopStack, key)
			}
		}
	}
}
