// Package shm owns the lifecycle of the shared-memory trace region the
// driver maps read-write and the instrumented target writes into.
// Grounded on original_source's src/fuzzer/mod.rs::create_coverage_shm:
// the region is backed by a regular file at a fixed path rather than
// an anonymous mapping, since an anonymous MAP_SHARED region does not
// survive the target's exec() — only a named, file-backed mapping does.
package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DefaultSize is the default trace buffer size: 512 MiB.
const DefaultSize = 512 * 1024 * 1024

// DefaultPath is the fixed backing-file path the instrumented target
// is expected to mmap under the same name.
const DefaultPath = "/tmp/covfuzz_coverage_shm.bin"

// Region is a file-backed shared mapping surviving across the
// target's fork/exec boundary, used to pass the block-id trace from
// the target back to the driver.
type Region struct {
	data []byte
	f    *os.File
	path string
}

// New truncates (or creates) the backing file at DefaultPath to size
// bytes and maps it MAP_SHARED, read-write. Callers normally pass
// shm.DefaultSize.
func New(size int) (*Region, error) {
	return NewAt(DefaultPath, size)
}

// NewAt is New with an explicit backing-file path, for tests that
// must not collide on the default path.
func NewAt(path string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid region size %d", size)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shm: opening %s: %w", path, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: truncating %s to %d bytes: %w", path, size, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}
	return &Region{data: data, f: f, path: path}, nil
}

// Path returns the backing file's path, passed to the target via its
// environment so the instrumented binary can map the same file.
func (r *Region) Path() string { return r.path }

// Bytes returns the mapped region for reading or decoding.
func (r *Region) Bytes() []byte {
	return r.data
}

// Close unmaps the region and closes the backing file. It is safe to
// call once; further use of Bytes after Close is undefined, matching
// the underlying mmap contract.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	if cerr := r.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("shm: closing %s: %w", r.path, err)
	}
	return nil
}
