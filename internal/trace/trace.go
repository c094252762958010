// Package trace decodes the block-id trace a running target leaves in
// its shared-memory buffer after each execution.
package trace

import (
	"encoding/binary"

	"github.com/covfuzz/covfuzz/pkg/types"
)

const lengthFieldSize = 4

// Decode reads the wire format out of region: a little-endian u32
// length N at byte 0, followed by N little-endian u32 block ids. N is clamped
// to the number of ids region can actually hold; an oversized length
// is never an error.
func Decode(region []byte) types.Trace {
	if len(region) < lengthFieldSize {
		return nil
	}
	n := binary.LittleEndian.Uint32(region[:lengthFieldSize])
	capacity := (len(region) - lengthFieldSize) / 4
	if int(n) > capacity {
		n = uint32(capacity)
	}
	if n == 0 {
		return types.Trace{}
	}
	out := make(types.Trace, n)
	for i := uint32(0); i < n; i++ {
		off := lengthFieldSize + int(i)*4
		out[i] = types.BlockID(binary.LittleEndian.Uint32(region[off : off+4]))
	}
	return out
}

// Clear zeros only the length word of region, not the tail, so the
// driver can reuse the buffer across invocations without a full wipe.
func Clear(region []byte) {
	if len(region) < lengthFieldSize {
		return
	}
	for i := 0; i < lengthFieldSize; i++ {
		region[i] = 0
	}
}
