package memutils

import (
	"fmt"

	"github.com/pkg/errors"
)

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

var (
	// ErrConfiguration marks every error produced by an invalid budget configuration. These are
	// fatal at startup and should abort initialization.
	ErrConfiguration = errors.New("invalid memory configuration")
	// ErrNotInitialized is returned when a coordinator is used before Initialize succeeded
	ErrNotInitialized = errors.New("memory coordinator is not initialized")
	// ErrAlreadyInitialized is returned from a second Initialize call
	ErrAlreadyInitialized = errors.New("memory coordinator is already initialized")
	// ErrPartitionOutOfBounds is returned when a partition index is beyond MaxPartitions
	ErrPartitionOutOfBounds = errors.New("partition index out of bounds")
	// ErrPartitionBudgetExceeded is returned when a request would exceed the partition's own budget
	ErrPartitionBudgetExceeded = errors.New("partition memory budget exceeded")
	// ErrGlobalBudgetExceeded is returned when a request would exceed the system-wide budget
	ErrGlobalBudgetExceeded = errors.New("system-wide memory budget exceeded")
	// ErrAllocationUnderflow is returned when more memory is returned than was ever allocated.
	// It indicates a double-free-like internal fault.
	ErrAllocationUnderflow = errors.New("allocation underflow")
	// ErrOutOfBounds is returned for any access outside of a provider's arena
	ErrOutOfBounds = errors.New("memory access out of bounds")
	// ErrCapacityExceeded is returned when a bounded collection is full
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrInvalidSize is returned when a requested size or capacity can never be satisfied
	ErrInvalidSize = errors.New("invalid size")
	// ErrIntegrity is returned when a checksum or internal consistency check fails
	ErrIntegrity = errors.New("memory integrity violation")
	// ErrCapabilityDenied is returned when a capability does not authorize an operation
	ErrCapabilityDenied = errors.New("capability does not authorize operation")
	// ErrMisaligned is returned when a typed view is requested over a misaligned region
	ErrMisaligned = errors.New("misaligned memory region")
	// ErrReleased is returned when a provider is used after its final Release
	ErrReleased = errors.New("provider has been released")
)

// BoundsError describes an access that fell outside of a region of Size bytes.
type BoundsError struct {
	Offset int
	Length int
	Size   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("access of %d bytes at offset %d exceeds region of %d bytes", e.Length, e.Offset, e.Size)
}

func (e *BoundsError) Unwrap() error { return ErrOutOfBounds }

// CheckBounds returns a *BoundsError if [offset, offset+length) does not fit within size. Negative
// values and overflowing sums are rejected.
func CheckBounds(offset, length, size int) error {
	if offset < 0 || length < 0 || offset > size || length > size-offset {
		return &BoundsError{Offset: offset, Length: length, Size: size}
	}
	return nil
}

// CapacityError is returned by bounded collections that are already holding Capacity elements.
type CapacityError struct {
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("collection is full (capacity %d)", e.Capacity)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }
