package trace

import (
	"encoding/binary"
	"testing"

	"github.com/covfuzz/covfuzz/pkg/types"
	"github.com/stretchr/testify/assert"
)

func region(n uint32, ids ...uint32) []byte {
	buf := make([]byte, lengthFieldSize+4*len(ids))
	binary.LittleEndian.PutUint32(buf[:4], n)
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[lengthFieldSize+4*i:], id)
	}
	return buf
}

func TestDecodeExactLength(t *testing.T) {
	r := region(3, 1, 2, 3)
	got := Decode(r)
	assert.Equal(t, types.Trace{1, 2, 3}, got)
}

func TestDecodeClampsOversizedLength(t *testing.T) {
	r := region(100, 1, 2, 3)
	got := Decode(r)
	assert.Equal(t, types.Trace{1, 2, 3}, got)
}

func TestDecodeEmptyTrace(t *testing.T) {
	r := region(0)
	got := Decode(r)
	assert.Equal(t, types.Trace{}, got)
}

func TestClearOnlyZerosLengthWord(t *testing.T) {
	r := region(2, 7, 8)
	Clear(r)
	assert.Equal(t, []byte{0, 0, 0, 0}, r[:4])
	// tail untouched
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(r[4:8]))
}
