package bounded

import (
	"iter"

	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

// Vec is a fixed-capacity vector
type Vec[T any] struct {
	slots  typedSlots[T]
	length int
}

// VecBytes returns the number of provider bytes a Vec of capacity elements needs
func VecBytes[T any](capacity int, codec Codec[T]) int {
	return capacity * codec.Size()
}

// NewVec creates an empty vector of capacity elements stored in p
func NewVec[T any](p provider.Provider, capacity int, codec Codec[T]) (*Vec[T], error) {
	slots, err := newTypedSlots(p, capacity, codec)
	if err != nil {
		return nil, err
	}

	return &Vec[T]{slots: slots}, nil
}

func (v *Vec[T]) Len() int { return v.length }

func (v *Vec[T]) Capacity() int { return v.slots.capacity }

func (v *Vec[T]) IsEmpty() bool { return v.length == 0 }

func (v *Vec[T]) IsFull() bool { return v.length == v.slots.capacity }

// Provider returns the provider holding the elements
func (v *Vec[T]) Provider() provider.Provider { return v.slots.provider }

// Push appends value
func (v *Vec[T]) Push(value T) error {
	if v.IsFull() {
		return capacityError(v.slots.capacity)
	}

	err := v.slots.set(v.length, value)
	if err != nil {
		return err
	}

	v.length++
	return nil
}

// Pop removes and returns the last element
func (v *Vec[T]) Pop() (T, bool, error) {
	var zero T
	if v.length == 0 {
		return zero, false, nil
	}

	value, err := v.slots.get(v.length - 1)
	if err != nil {
		return zero, false, err
	}

	err = v.slots.scrub(v.length - 1)
	if err != nil {
		return zero, false, err
	}

	v.length--
	return value, true, nil
}

// Get returns the element at index, or ok == false if index is out of range
func (v *Vec[T]) Get(index int) (T, bool, error) {
	var zero T
	if index < 0 || index >= v.length {
		return zero, false, nil
	}

	value, err := v.slots.get(index)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Set replaces the element at index
func (v *Vec[T]) Set(index int, value T) error {
	if index < 0 || index >= v.length {
		return &memutils.BoundsError{Offset: index, Length: 1, Size: v.length}
	}
	return v.slots.set(index, value)
}

// Insert places value at index, moving later elements up by one
func (v *Vec[T]) Insert(index int, value T) error {
	if index < 0 || index > v.length {
		return &memutils.BoundsError{Offset: index, Length: 1, Size: v.length}
	}
	if v.IsFull() {
		return capacityError(v.slots.capacity)
	}

	err := v.slots.encodable(value)
	if err != nil {
		return err
	}

	err = v.slots.shift(index, v.length-index, 1)
	if err != nil {
		return err
	}

	err = v.slots.set(index, value)
	if err != nil {
		return err
	}

	v.length++
	return nil
}

// Remove deletes and returns the element at index, moving later elements down by one
func (v *Vec[T]) Remove(index int) (T, bool, error) {
	var zero T
	if index < 0 || index >= v.length {
		return zero, false, nil
	}

	value, err := v.slots.get(index)
	if err != nil {
		return zero, false, err
	}

	err = v.slots.shift(index+1, v.length-index-1, -1)
	if err != nil {
		return zero, false, err
	}

	err = v.slots.scrub(v.length - 1)
	if err != nil {
		return zero, false, err
	}

	v.length--
	return value, true, nil
}

// Truncate drops every element at or after length
func (v *Vec[T]) Truncate(length int) error {
	if length < 0 {
		return &memutils.BoundsError{Offset: length, Length: 0, Size: v.length}
	}
	if length >= v.length {
		return nil
	}

	err := v.slots.scrubRange(length, v.length-length)
	if err != nil {
		return err
	}

	v.length = length
	return nil
}

// Clear removes every element and scrubs their slots
func (v *Vec[T]) Clear() error {
	return v.Truncate(0)
}

// IndexFunc returns the index of the first element satisfying match, or -1
func (v *Vec[T]) IndexFunc(match func(value T) bool) (int, error) {
	for i := 0; i < v.length; i++ {
		value, err := v.slots.get(i)
		if err != nil {
			return -1, err
		}
		if match(value) {
			return i, nil
		}
	}
	return -1, nil
}

// All iterates over the elements in index order
func (v *Vec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.length; i++ {
			value, err := v.slots.get(i)
			if err != nil || !yield(i, value) {
				return
			}
		}
	}
}

// Values iterates over the elements in index order
func (v *Vec[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.All() {
			if !yield(value) {
				return
			}
		}
	}
}

func (v *Vec[T]) indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < v.length; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

// Checksum covers the encoded elements in index order
func (v *Vec[T]) Checksum() (verification.Checksum, error) {
	return v.slots.checksum(v.indices())
}

// UpdateChecksum folds the vector into a running checksum. Elements that cannot be read are
// skipped; use Checksum to observe the error.
func (v *Vec[T]) UpdateChecksum(checksum *verification.Checksum) {
	for i := range v.indices() {
		record, err := v.slots.load(i)
		if err != nil {
			return
		}
		checksum.Update(record)
	}
}

// Clone copies the elements into a new vector of the same capacity stored in p
func (v *Vec[T]) Clone(p provider.Provider) (*Vec[T], error) {
	clone, err := NewVec(p, v.slots.capacity, v.slots.codec)
	if err != nil {
		return nil, err
	}

	for i := 0; i < v.length; i++ {
		record, err := v.slots.load(i)
		if err != nil {
			return nil, err
		}

		err = clone.slots.store(i, record)
		if err != nil {
			return nil, err
		}
	}

	clone.length = v.length
	return clone, nil
}

// MarshalBinary encodes the elements in index order
func (v *Vec[T]) MarshalBinary() ([]byte, error) {
	return marshalRecords(&v.slots.slots, v.length, func(i int) int { return i })
}

// UnmarshalBinary replaces the contents with elements encoded by MarshalBinary
func (v *Vec[T]) UnmarshalBinary(data []byte) error {
	count, err := unmarshalHeader(data, v.slots.capacity, v.slots.size)
	if err != nil {
		return err
	}

	err = v.Clear()
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		err = v.slots.store(i, record(data, v.slots.size, i))
		if err != nil {
			return err
		}
		v.length = i + 1
	}

	return nil
}

// Release clears the vector and releases its provider
func (v *Vec[T]) Release() error {
	v.length = 0
	return v.slots.release()
}
