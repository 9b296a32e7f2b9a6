package provider

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/internal/pages"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/verification"
)

// Option adjusts how an Arena obtains its memory
type Option func(options *arenaOptions)

type arenaOptions struct {
	pageBacked bool
}

// WithPageBacking requests that the arena's memory come straight from the operating system
// rather than the Go heap. It is honored for fixed arenas of at least one page on platforms
// that support anonymous mappings, and ignored otherwise.
func WithPageBacking() Option {
	return func(options *arenaOptions) {
		options.pageBacked = true
	}
}

// Arena is the standard Provider. A fixed arena has all of its capacity accessible from
// construction; a dynamic arena starts empty and grows through EnsureUsedUpTo, or through
// writes past its current size, up to its declared capacity.
type Arena struct {
	data     []byte
	capacity int
	dynamic  bool
	level    verification.Level

	checksums blockChecksums

	allocated   int
	peak        int
	accessCount int64

	unmap    func() error
	released bool
}

var _ Provider = &Arena{}

func checkArenaSize(size int) error {
	if size <= 0 {
		return errors.Wrapf(memutils.ErrInvalidSize, "arena size %d must be positive", size)
	}
	if size > MaxArenaSize {
		return errors.Wrapf(memutils.ErrInvalidSize, "arena size %d exceeds the maximum of %d bytes", size, MaxArenaSize)
	}
	return nil
}

// NewArena creates a fixed arena of capacity zeroed bytes
func NewArena(capacity int, level verification.Level, options ...Option) (*Arena, error) {
	err := checkArenaSize(capacity)
	if err != nil {
		return nil, err
	}

	var opts arenaOptions
	for _, option := range options {
		option(&opts)
	}

	arena := &Arena{
		capacity:  capacity,
		level:     level,
		allocated: capacity,
		peak:      capacity,
	}

	if opts.pageBacked && pages.Available && capacity >= pages.Size() {
		arena.data, arena.unmap, err = pages.Map(capacity)
		if err != nil {
			return nil, err
		}
	} else {
		arena.data = make([]byte, capacity)
	}

	arena.checksums.resize(blockCount(capacity))
	if level.ChecksumsWrites() {
		arena.checksums.refresh(arena.data, 0, blockCount(capacity)-1)
	}

	return arena, nil
}

// NewDynamicArena creates an arena that may grow to maxCapacity bytes. It starts with no
// accessible bytes.
func NewDynamicArena(maxCapacity int, level verification.Level) (*Arena, error) {
	err := checkArenaSize(maxCapacity)
	if err != nil {
		return nil, err
	}

	return &Arena{
		capacity: maxCapacity,
		dynamic:  true,
		level:    level,
	}, nil
}

func (a *Arena) checkAccess(offset, length int) error {
	if a.released {
		return errors.WithStack(memutils.ErrReleased)
	}
	return memutils.CheckBounds(offset, length, len(a.data))
}

func (a *Arena) touch() {
	atomic.AddInt64(&a.accessCount, 1)
}

// written updates the checksums of the blocks covering a write
func (a *Arena) written(offset, length int) {
	first, last := blockRange(offset, length)
	if a.level.ChecksumsWrites() {
		a.checksums.refresh(a.data, first, last)
	} else {
		a.checksums.invalidate(first, last)
	}
}

func (a *Arena) BorrowSlice(offset, length int) ([]byte, error) {
	err := a.checkAccess(offset, length)
	if err != nil {
		return nil, err
	}

	a.touch()
	return a.data[offset : offset+length : offset+length], nil
}

func (a *Arena) BorrowSliceMut(offset, length int) ([]byte, error) {
	err := a.checkAccess(offset, length)
	if err != nil {
		return nil, err
	}

	a.touch()
	first, last := blockRange(offset, length)
	a.checksums.invalidate(first, last)
	return a.data[offset : offset+length : offset+length], nil
}

func (a *Arena) WriteData(offset int, data []byte) error {
	if a.released {
		return errors.WithStack(memutils.ErrReleased)
	}

	if a.dynamic && offset >= 0 && offset <= a.capacity-len(data) && offset+len(data) > len(a.data) {
		err := a.EnsureUsedUpTo(offset + len(data))
		if err != nil {
			return err
		}
	}

	err := a.checkAccess(offset, len(data))
	if err != nil {
		return err
	}

	a.touch()
	copy(a.data[offset:], data)
	a.written(offset, len(data))

	return nil
}

func (a *Arena) ReadData(offset int, dst []byte) error {
	err := a.checkAccess(offset, len(dst))
	if err != nil {
		return err
	}

	if a.level >= verification.LevelFull {
		first, last := blockRange(offset, len(dst))
		err = a.checksums.verify(a.data, first, last, a.level.ShouldVerifyRedundant())
		if err != nil {
			return err
		}
	}

	a.touch()
	copy(dst, a.data[offset:offset+len(dst)])
	return nil
}

func (a *Arena) CopyWithin(src, dst, length int) error {
	err := a.checkAccess(src, length)
	if err != nil {
		return err
	}

	err = a.checkAccess(dst, length)
	if err != nil {
		return err
	}

	a.touch()
	copy(a.data[dst:dst+length], a.data[src:src+length])
	a.written(dst, length)
	return nil
}

func (a *Arena) VerifyAccess(offset, length int, importance uint8) error {
	if !a.level.ShouldVerify(importance) {
		return nil
	}

	err := a.checkAccess(offset, length)
	if err != nil {
		return err
	}

	if a.level >= verification.LevelFull {
		first, last := blockRange(offset, length)
		return a.checksums.verify(a.data, first, last, a.level.ShouldVerifyRedundant())
	}

	return nil
}

func (a *Arena) VerifyIntegrity() error {
	if a.released {
		return errors.WithStack(memutils.ErrReleased)
	}

	first, last := blockRange(0, len(a.data))
	return a.checksums.verify(a.data, first, last, a.level.ShouldVerifyRedundant())
}

// RefreshChecksums checksums the whole accessible region, regardless of verification level.
// It is the explicit way to cover data written before the level was raised.
func (a *Arena) RefreshChecksums() error {
	if a.released {
		return errors.WithStack(memutils.ErrReleased)
	}

	first, last := blockRange(0, len(a.data))
	a.checksums.refresh(a.data, first, last)
	return nil
}

func (a *Arena) Capacity() int { return a.capacity }

func (a *Arena) Size() int { return len(a.data) }

// IsDynamic reports whether the arena was created with NewDynamicArena
func (a *Arena) IsDynamic() bool { return a.dynamic }

func (a *Arena) EnsureUsedUpTo(size int) error {
	if a.released {
		return errors.WithStack(memutils.ErrReleased)
	}

	if size < 0 || size > a.capacity {
		return &memutils.BoundsError{Offset: 0, Length: size, Size: a.capacity}
	}

	if size <= len(a.data) {
		return nil
	}

	// Fixed arenas are always fully accessible, so only dynamic arenas get here
	oldSize := len(a.data)
	if size <= cap(a.data) {
		a.data = a.data[:size]
	} else {
		newCap := 2 * cap(a.data)
		if newCap < size {
			newCap = size
		}
		if newCap > a.capacity {
			newCap = a.capacity
		}

		grown := make([]byte, size, newCap)
		copy(grown, a.data)
		a.data = grown
	}

	a.checksums.resize(blockCount(size))
	// Covers the block that held the old end, which now spans more bytes
	a.written(oldSize, size-oldSize)

	a.allocated = size
	if size > a.peak {
		a.peak = size
	}

	return nil
}

// Resize sets the accessible size of a dynamic arena. Shrinking scrubs the bytes that become
// inaccessible. Fixed arenas only accept their own capacity.
func (a *Arena) Resize(size int) error {
	if a.released {
		return errors.WithStack(memutils.ErrReleased)
	}

	if !a.dynamic {
		if size != a.capacity {
			return errors.Wrapf(memutils.ErrInvalidSize, "fixed arena of %d bytes cannot be resized to %d", a.capacity, size)
		}
		return nil
	}

	if size >= len(a.data) {
		return a.EnsureUsedUpTo(size)
	}

	if size < 0 {
		return &memutils.BoundsError{Offset: 0, Length: size, Size: a.capacity}
	}

	clear(a.data[size:])
	a.data = a.data[:size]
	a.checksums.resize(blockCount(size))
	if size%ChecksumBlockSize != 0 {
		_, last := blockRange(0, size)
		a.written(last*ChecksumBlockSize, size-last*ChecksumBlockSize)
	}
	a.allocated = size

	return nil
}

func (a *Arena) AllocatedMemory() int { return a.allocated }

func (a *Arena) PeakMemory() int { return a.peak }

func (a *Arena) AccessCount() int { return int(atomic.LoadInt64(&a.accessCount)) }

func (a *Arena) Statistics() memutils.ProviderStatistics {
	return memutils.ProviderStatistics{
		Capacity:          a.capacity,
		Size:              len(a.data),
		AllocatedBytes:    a.allocated,
		PeakBytes:         a.peak,
		AccessCount:       a.AccessCount(),
		ChecksummedBlocks: a.checksums.count(),
	}
}

func (a *Arena) SetVerificationLevel(level verification.Level) {
	a.level = level
}

func (a *Arena) VerificationLevel() verification.Level {
	return a.level
}

// Release scrubs the arena and gives its memory back
func (a *Arena) Release() error {
	if a.released {
		return nil
	}

	clear(a.data)
	a.released = true
	a.data = nil
	a.allocated = 0
	a.checksums = blockChecksums{}

	if a.unmap != nil {
		unmap := a.unmap
		a.unmap = nil
		return unmap()
	}

	return nil
}
