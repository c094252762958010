package coverage

import (
	"crypto/md5"
	"encoding/binary"

	"github.com/covfuzz/covfuzz/pkg/types"
)

// RawPathCoverage hashes the whole trace as one unit, with no
// per-function reduction. Grounded on original_source's
// raw_path.rs: MD5 is used purely for collision resistance, not as a
// cryptographic primitive, over the trace's little-endian 32-bit
// words.
type RawPathCoverage struct {
	seen map[[md5.Size]byte]struct{}
}

// NewRawPathCoverage returns an empty raw-path-coverage metric.
func NewRawPathCoverage() *RawPathCoverage {
	return &RawPathCoverage{seen: make(map[[md5.Size]byte]struct{})}
}

// Observe hashes t and reports NewPath{0} on first insertion of that
// digest, else NoCoverage(0): uniqueness is always 0 for this
// metric, since it has no per-key hit-count table to rank by. An
// empty trace is never hashed or inserted; it always reports
// NoCoverage(UniquenessSentinel).
func (r *RawPathCoverage) Observe(t types.Trace) Feedback {
	if len(t) == 0 {
		return NoCoverage(UniquenessSentinel)
	}
	digest := hashTrace(t)
	if _, ok := r.seen[digest]; ok {
		return NoCoverage(0)
	}
	r.seen[digest] = struct{}{}
	return NewPathFeedback(0)
}

func (r *RawPathCoverage) Summary() any {
	return len(r.seen)
}

func (r *RawPathCoverage) Full() any {
	return nil
}

func (r *RawPathCoverage) Name() string { return "rawpath" }

func (r *RawPathCoverage) Priority() int { return 10 }

// hashTrace computes the MD5 digest of t treated as a byte sequence of
// little-endian 32-bit words.
func hashTrace(t types.Trace) [md5.Size]byte {
	buf := make([]byte, 4*len(t))
	for i, b := range t {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(b))
	}
	return md5.Sum(buf)
}
