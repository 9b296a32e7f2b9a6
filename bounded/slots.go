// Package bounded provides fixed-capacity collections whose elements live in a provider. A
// collection's capacity is fixed when it is created and never changes; mutators that would
// exceed it fail with memutils.ErrCapacityExceeded instead of growing, and removals from an
// empty collection report ok == false rather than an error.
//
// Collections are not safe for concurrent use. Iterators are restartable: each call to All
// starts a fresh pass, and a pass ends early if the provider reports an error.
package bounded

import (
	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

// slots is an array of fixed-size records laid out back to back in a provider
type slots struct {
	provider provider.Provider
	capacity int
	size     int
	scratch  []byte
}

func newSlots(p provider.Provider, capacity, size int) (slots, error) {
	if p == nil {
		return slots{}, errors.New("collection requires a provider")
	}
	if capacity <= 0 {
		return slots{}, errors.Wrapf(memutils.ErrInvalidSize, "collection capacity %d must be positive", capacity)
	}
	if size <= 0 {
		return slots{}, errors.Wrapf(memutils.ErrInvalidSize, "element size %d must be positive", size)
	}

	required := capacity * size
	if required/size != capacity || required > p.Capacity() {
		return slots{}, errors.Wrapf(memutils.ErrInvalidSize,
			"%d elements of %d bytes do not fit in a provider of %d bytes", capacity, size, p.Capacity())
	}

	err := p.EnsureUsedUpTo(required)
	if err != nil {
		return slots{}, err
	}

	return slots{
		provider: p,
		capacity: capacity,
		size:     size,
		scratch:  make([]byte, size),
	}, nil
}

func (s *slots) offset(index int) int {
	return index * s.size
}

// load copies the raw record at index into the scratch buffer
func (s *slots) load(index int) ([]byte, error) {
	offset := s.offset(index)
	err := s.provider.VerifyAccess(offset, s.size, verification.ImportanceMedium)
	if err != nil {
		return nil, err
	}

	err = s.provider.ReadData(offset, s.scratch)
	if err != nil {
		return nil, err
	}
	return s.scratch, nil
}

func (s *slots) store(index int, record []byte) error {
	return s.provider.WriteData(s.offset(index), record)
}

// move copies the record at from over the record at to
func (s *slots) move(from, to int) error {
	return s.provider.CopyWithin(s.offset(from), s.offset(to), s.size)
}

// shift moves count records starting at from by delta slots
func (s *slots) shift(from, count, delta int) error {
	if count == 0 {
		return nil
	}
	return s.provider.CopyWithin(s.offset(from), s.offset(from+delta), count*s.size)
}

func (s *slots) scrub(index int) error {
	clear(s.scratch)
	return s.store(index, s.scratch)
}

// scrubRange zeroes count records starting at from
func (s *slots) scrubRange(from, count int) error {
	if count <= 0 {
		return nil
	}

	zeroes := make([]byte, count*s.size)
	return s.provider.WriteData(s.offset(from), zeroes)
}

// checksum folds the raw records at the given indices, in order, into a checksum
func (s *slots) checksum(indices func(yield func(int) bool)) (verification.Checksum, error) {
	checksum := verification.NewChecksum()

	var err error
	indices(func(index int) bool {
		var record []byte
		record, err = s.load(index)
		if err != nil {
			return false
		}
		checksum.Update(record)
		return true
	})

	return checksum, err
}

func (s *slots) release() error {
	return s.provider.Release()
}

// typedSlots pairs slots with the codec of the values stored in them
type typedSlots[T any] struct {
	slots
	codec Codec[T]
}

func newTypedSlots[T any](p provider.Provider, capacity int, codec Codec[T]) (typedSlots[T], error) {
	if codec == nil {
		return typedSlots[T]{}, errors.New("collection requires a codec")
	}

	s, err := newSlots(p, capacity, codec.Size())
	if err != nil {
		return typedSlots[T]{}, err
	}

	return typedSlots[T]{slots: s, codec: codec}, nil
}

func (s *typedSlots[T]) get(index int) (T, error) {
	record, err := s.load(index)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.codec.Decode(record), nil
}

func (s *typedSlots[T]) set(index int, value T) error {
	err := s.codec.Encode(s.scratch, value)
	if err != nil {
		return err
	}
	return s.store(index, s.scratch)
}

// encodable checks that value can be stored before any state changes
func (s *typedSlots[T]) encodable(value T) error {
	return s.codec.Encode(s.scratch, value)
}
