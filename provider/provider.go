// Package provider owns the contiguous byte regions that every bounded collection is built on.
// All access to a region goes through bounds-checked borrow, read and write calls; no method
// panics on caller input.
//
// A Provider is owned by a single logical subsystem. Concurrent reads are safe, but concurrent
// writes to one Provider, or writes concurrent with reads, must be serialized by the caller.
package provider

import (
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/verification"
)

const (
	// DefaultCapacity is the capacity used by factories when none is requested
	DefaultCapacity int = 4096
	// MaxArenaSize is the largest region any single provider may own
	MaxArenaSize int = 1 << 30
	// ChecksumBlockSize is the granularity of integrity checksums
	ChecksumBlockSize int = 64
)

// Provider is the sole owner of a contiguous byte region. Offsets are relative to the start of
// the region and are checked against Size, which never exceeds Capacity.
type Provider interface {
	// BorrowSlice returns a read-only view of length bytes at offset. The view aliases the
	// provider's memory and must not be written through.
	BorrowSlice(offset, length int) ([]byte, error)
	// BorrowSliceMut returns a writable view of length bytes at offset. Checksums covering the
	// view are invalidated, since writes through it cannot be observed.
	BorrowSliceMut(offset, length int) ([]byte, error)
	// WriteData copies data into the region at offset
	WriteData(offset int, data []byte) error
	// ReadData copies len(dst) bytes at offset into dst
	ReadData(offset int, dst []byte) error
	// CopyWithin copies length bytes from src to dst inside the region. The ranges may overlap.
	CopyWithin(src, dst, length int) error

	// VerifyAccess asserts that an access of length bytes at offset is within policy. It is a
	// no-op at verification.LevelOff and for accesses the current level does not sample.
	VerifyAccess(offset, length int, importance uint8) error
	// VerifyIntegrity checks every checksummed block of the region
	VerifyIntegrity() error

	Capacity() int
	Size() int
	// EnsureUsedUpTo makes the first size bytes of the region accessible
	EnsureUsedUpTo(size int) error
	AllocatedMemory() int
	PeakMemory() int
	AccessCount() int
	Statistics() memutils.ProviderStatistics

	// SetVerificationLevel changes the level for future operations only; existing data is not
	// checksummed retroactively
	SetVerificationLevel(level verification.Level)
	VerificationLevel() verification.Level

	// Release gives the region back. Every method except Release fails with
	// memutils.ErrReleased afterwards; further Release calls do nothing.
	Release() error
}

func blockRange(offset, length int) (first, last int) {
	if length <= 0 {
		return 0, -1
	}
	return offset / ChecksumBlockSize, (offset + length - 1) / ChecksumBlockSize
}

func blockCount(size int) int {
	return (size + ChecksumBlockSize - 1) / ChecksumBlockSize
}
