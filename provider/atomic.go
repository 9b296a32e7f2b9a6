package provider

import (
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
)

// Uint32View performs atomic operations on four bytes of a provider, in native byte order. It
// stays valid until the provider grows or is released.
type Uint32View struct {
	ptr *uint32
}

// AtomicUint32At returns an atomic view of the four bytes at offset, which must be naturally
// aligned in memory
func AtomicUint32At(p Provider, offset int) (Uint32View, error) {
	ptr, err := alignedPointer(p, offset, 4)
	if err != nil {
		return Uint32View{}, err
	}
	return Uint32View{ptr: (*uint32)(ptr)}, nil
}

func (v Uint32View) Load() uint32 { return atomic.LoadUint32(v.ptr) }

func (v Uint32View) Store(value uint32) { atomic.StoreUint32(v.ptr, value) }

func (v Uint32View) Add(delta uint32) uint32 { return atomic.AddUint32(v.ptr, delta) }

func (v Uint32View) Swap(value uint32) uint32 { return atomic.SwapUint32(v.ptr, value) }

func (v Uint32View) CompareAndSwap(old, new uint32) bool {
	return atomic.CompareAndSwapUint32(v.ptr, old, new)
}

// Uint64View is the eight-byte counterpart of Uint32View
type Uint64View struct {
	ptr *uint64
}

// AtomicUint64At returns an atomic view of the eight bytes at offset, which must be aligned to
// eight bytes in memory
func AtomicUint64At(p Provider, offset int) (Uint64View, error) {
	ptr, err := alignedPointer(p, offset, 8)
	if err != nil {
		return Uint64View{}, err
	}
	return Uint64View{ptr: (*uint64)(ptr)}, nil
}

func (v Uint64View) Load() uint64 { return atomic.LoadUint64(v.ptr) }

func (v Uint64View) Store(value uint64) { atomic.StoreUint64(v.ptr, value) }

func (v Uint64View) Add(delta uint64) uint64 { return atomic.AddUint64(v.ptr, delta) }

func (v Uint64View) Swap(value uint64) uint64 { return atomic.SwapUint64(v.ptr, value) }

func (v Uint64View) CompareAndSwap(old, new uint64) bool {
	return atomic.CompareAndSwapUint64(v.ptr, old, new)
}

func alignedPointer(p Provider, offset, size int) (unsafe.Pointer, error) {
	data, err := p.BorrowSliceMut(offset, size)
	if err != nil {
		return nil, err
	}

	ptr := unsafe.Pointer(unsafe.SliceData(data))
	if !memutils.IsAligned(uintptr(ptr), uintptr(size)) {
		return nil, errors.Wrapf(memutils.ErrMisaligned, "offset %d is not aligned to %d bytes", offset, size)
	}

	return ptr, nil
}
