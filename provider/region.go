package provider

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/verification"
)

// Region is a Provider over a window of another provider. Offsets are translated into the
// parent, so several collections can share one arena without seeing each other's bytes. The
// window is fully accessible from creation and the verification level is the parent's.
type Region struct {
	parent      Provider
	offset      int
	length      int
	accessCount int64
	released    bool
}

var _ Provider = &Region{}

// NewRegion creates a window of length bytes at offset in parent. The window must fit within
// the parent's capacity; the parent is grown to cover it if necessary.
func NewRegion(parent Provider, offset, length int) (*Region, error) {
	err := memutils.CheckBounds(offset, length, parent.Capacity())
	if err != nil {
		return nil, err
	}

	err = parent.EnsureUsedUpTo(offset + length)
	if err != nil {
		return nil, err
	}

	return &Region{
		parent: parent,
		offset: offset,
		length: length,
	}, nil
}

func (r *Region) check(offset, length int) error {
	if r.released {
		return errors.WithStack(memutils.ErrReleased)
	}

	err := memutils.CheckBounds(offset, length, r.length)
	if err != nil {
		return err
	}

	atomic.AddInt64(&r.accessCount, 1)
	return nil
}

// Offset returns the start of the window within the parent
func (r *Region) Offset() int { return r.offset }

func (r *Region) BorrowSlice(offset, length int) ([]byte, error) {
	err := r.check(offset, length)
	if err != nil {
		return nil, err
	}
	return r.parent.BorrowSlice(r.offset+offset, length)
}

func (r *Region) BorrowSliceMut(offset, length int) ([]byte, error) {
	err := r.check(offset, length)
	if err != nil {
		return nil, err
	}
	return r.parent.BorrowSliceMut(r.offset+offset, length)
}

func (r *Region) WriteData(offset int, data []byte) error {
	err := r.check(offset, len(data))
	if err != nil {
		return err
	}
	return r.parent.WriteData(r.offset+offset, data)
}

func (r *Region) ReadData(offset int, dst []byte) error {
	err := r.check(offset, len(dst))
	if err != nil {
		return err
	}
	return r.parent.ReadData(r.offset+offset, dst)
}

func (r *Region) CopyWithin(src, dst, length int) error {
	if r.released {
		return errors.WithStack(memutils.ErrReleased)
	}

	err := memutils.CheckBounds(src, length, r.length)
	if err != nil {
		return err
	}

	err = r.check(dst, length)
	if err != nil {
		return err
	}

	return r.parent.CopyWithin(r.offset+src, r.offset+dst, length)
}

func (r *Region) VerifyAccess(offset, length int, importance uint8) error {
	if r.released {
		return errors.WithStack(memutils.ErrReleased)
	}

	if !r.parent.VerificationLevel().ShouldVerify(importance) {
		return nil
	}

	err := memutils.CheckBounds(offset, length, r.length)
	if err != nil {
		return err
	}

	return r.parent.VerifyAccess(r.offset+offset, length, verification.ImportanceCritical)
}

// VerifyIntegrity checks the blocks of the parent that overlap the window
func (r *Region) VerifyIntegrity() error {
	if r.released {
		return errors.WithStack(memutils.ErrReleased)
	}

	if r.parent.VerificationLevel() < verification.LevelFull {
		return r.parent.VerifyIntegrity()
	}
	return r.parent.VerifyAccess(r.offset, r.length, verification.ImportanceCritical)
}

func (r *Region) Capacity() int { return r.length }

func (r *Region) Size() int { return r.length }

func (r *Region) EnsureUsedUpTo(size int) error {
	if r.released {
		return errors.WithStack(memutils.ErrReleased)
	}
	if size < 0 || size > r.length {
		return &memutils.BoundsError{Offset: 0, Length: size, Size: r.length}
	}
	return nil
}

func (r *Region) AllocatedMemory() int {
	if r.released {
		return 0
	}
	return r.length
}

func (r *Region) PeakMemory() int { return r.length }

func (r *Region) AccessCount() int { return int(atomic.LoadInt64(&r.accessCount)) }

func (r *Region) Statistics() memutils.ProviderStatistics {
	return memutils.ProviderStatistics{
		Capacity:       r.length,
		Size:           r.length,
		AllocatedBytes: r.AllocatedMemory(),
		PeakBytes:      r.length,
		AccessCount:    r.AccessCount(),
	}
}

// SetVerificationLevel changes the parent's level, which every window onto it shares
func (r *Region) SetVerificationLevel(level verification.Level) {
	r.parent.SetVerificationLevel(level)
}

func (r *Region) VerificationLevel() verification.Level {
	return r.parent.VerificationLevel()
}

// Release detaches the window. The parent's memory stays with the parent.
func (r *Region) Release() error {
	r.released = true
	return nil
}
