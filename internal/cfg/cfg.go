// Package cfg loads and indexes the control-flow-graph description of a
// fuzz target so coverage metrics can map block ids to functions without
// recomputing the mapping on every trace.
package cfg

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/covfuzz/covfuzz/pkg/types"
)

// Function describes one function's entry block, exit blocks, and the
// complete set of blocks it contains, as read from the CFG JSON.
type Function struct {
	Name       string         `json:"name"`
	EntryBlock types.BlockID  `json:"entry_block"`
	ExitBlocks []types.BlockID `json:"exit_blocks"`
	AllBlocks  []types.BlockID `json:"all_blocks"`
}

// Module groups the functions defined in one compilation unit of the
// target binary.
type Module struct {
	ModuleName string     `json:"module_name"`
	Functions  []Function `json:"functions"`
}

// Index is the immutable, precomputed view over a target's CFG used by
// every coverage metric. Build it once with Load and share it; Index
// itself holds no mutable state.
type Index struct {
	blockToFn      map[types.BlockID]types.FunctionID
	fnToExits      map[types.FunctionID]map[types.BlockID]struct{}
	fnToEntryName  map[types.FunctionID]string
	fnToBlocks     map[types.FunctionID][]types.BlockID
}

// Load reads and parses the CFG JSON document at path and builds an
// Index. The document shape is an array of Module objects.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cfg: reading %s: %w", path, err)
	}
	var modules []Module
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, fmt.Errorf("cfg: parsing %s: %w", path, err)
	}
	return build(modules), nil
}

func build(modules []Module) *Index {
	idx := &Index{
		blockToFn:     make(map[types.BlockID]types.FunctionID),
		fnToExits:     make(map[types.FunctionID]map[types.BlockID]struct{}),
		fnToEntryName: make(map[types.FunctionID]string),
		fnToBlocks:    make(map[types.FunctionID][]types.BlockID),
	}
	for _, mod := range modules {
		for _, fn := range mod.Functions {
			fid := types.FunctionID(fn.EntryBlock)
			exits := make(map[types.BlockID]struct{}, len(fn.ExitBlocks))
			for _, b := range fn.ExitBlocks {
				exits[b] = struct{}{}
			}
			idx.fnToExits[fid] = exits
			idx.fnToEntryName[fid] = mod.ModuleName + "." + fn.Name
			idx.fnToBlocks[fid] = append([]types.BlockID(nil), fn.AllBlocks...)
			for _, b := range fn.AllBlocks {
				idx.blockToFn[b] = fid
			}
			idx.blockToFn[fn.EntryBlock] = fid
		}
	}
	return idx
}

// FunctionOf returns the function that owns block b. It panics if b is
// not present in the CFG: an unknown block id is a bug in the target's
// instrumentation, not a runtime condition to recover from.
func (idx *Index) FunctionOf(b types.BlockID) types.FunctionID {
	fid, ok := idx.blockToFn[b]
	if !ok {
		panic(fmt.Sprintf("cfg: block %d absent from CFG index", b))
	}
	return fid
}

// IsFunctionEntry reports whether b is the entry block of some function,
// i.e. whether encountering b mid-trace denotes a call.
func (idx *Index) IsFunctionEntry(b types.BlockID) bool {
	_, ok := idx.fnToExits[types.FunctionID(b)]
	return ok
}

// ExitsOf returns the exit-block set of function fid. The set is never
// empty for a function present in the index.
func (idx *Index) ExitsOf(fid types.FunctionID) map[types.BlockID]struct{} {
	return idx.fnToExits[fid]
}

// IsExit reports whether b is an exit block of function fid.
func (idx *Index) IsExit(fid types.FunctionID, b types.BlockID) bool {
	_, ok := idx.fnToExits[fid][b]
	return ok
}

// DisplayName returns the reporting name ("module.function") of fid.
func (idx *Index) DisplayName(fid types.FunctionID) string {
	return idx.fnToEntryName[fid]
}

// BlocksOf returns every block belonging to function fid, for reporting.
func (idx *Index) BlocksOf(fid types.FunctionID) []types.BlockID {
	return idx.fnToBlocks[fid]
}
