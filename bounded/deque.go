package bounded

import (
	"iter"

	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

// Deque is a fixed-capacity double-ended queue over a ring of slots
type Deque[T any] struct {
	slots  typedSlots[T]
	head   int
	length int
}

// DequeBytes returns the number of provider bytes a Deque of capacity elements needs
func DequeBytes[T any](capacity int, codec Codec[T]) int {
	return capacity * codec.Size()
}

// NewDeque creates an empty deque of capacity elements stored in p
func NewDeque[T any](p provider.Provider, capacity int, codec Codec[T]) (*Deque[T], error) {
	slots, err := newTypedSlots(p, capacity, codec)
	if err != nil {
		return nil, err
	}

	return &Deque[T]{slots: slots}, nil
}

func (d *Deque[T]) Len() int { return d.length }

func (d *Deque[T]) Capacity() int { return d.slots.capacity }

func (d *Deque[T]) IsEmpty() bool { return d.length == 0 }

func (d *Deque[T]) IsFull() bool { return d.length == d.slots.capacity }

func (d *Deque[T]) Provider() provider.Provider { return d.slots.provider }

func (d *Deque[T]) slot(i int) int {
	return (d.head + i) % d.slots.capacity
}

// PushBack appends value after the last element
func (d *Deque[T]) PushBack(value T) error {
	if d.IsFull() {
		return capacityError(d.slots.capacity)
	}

	err := d.slots.set(d.slot(d.length), value)
	if err != nil {
		return err
	}

	d.length++
	return nil
}

// PushFront places value before the first element
func (d *Deque[T]) PushFront(value T) error {
	if d.IsFull() {
		return capacityError(d.slots.capacity)
	}

	head := (d.head + d.slots.capacity - 1) % d.slots.capacity
	err := d.slots.set(head, value)
	if err != nil {
		return err
	}

	d.head = head
	d.length++
	return nil
}

func (d *Deque[T]) take(index int) (T, error) {
	value, err := d.slots.get(index)
	if err != nil {
		return value, err
	}
	return value, d.slots.scrub(index)
}

// PopFront removes and returns the first element
func (d *Deque[T]) PopFront() (T, bool, error) {
	var zero T
	if d.length == 0 {
		return zero, false, nil
	}

	value, err := d.take(d.head)
	if err != nil {
		return zero, false, err
	}

	d.head = (d.head + 1) % d.slots.capacity
	d.length--
	return value, true, nil
}

// PopBack removes and returns the last element
func (d *Deque[T]) PopBack() (T, bool, error) {
	var zero T
	if d.length == 0 {
		return zero, false, nil
	}

	value, err := d.take(d.slot(d.length - 1))
	if err != nil {
		return zero, false, err
	}

	d.length--
	return value, true, nil
}

// Get returns the element at position index counted from the front
func (d *Deque[T]) Get(index int) (T, bool, error) {
	var zero T
	if index < 0 || index >= d.length {
		return zero, false, nil
	}

	value, err := d.slots.get(d.slot(index))
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Front returns the first element without removing it
func (d *Deque[T]) Front() (T, bool, error) { return d.Get(0) }

// Back returns the last element without removing it
func (d *Deque[T]) Back() (T, bool, error) { return d.Get(d.length - 1) }

// Clear removes every element and scrubs their slots
func (d *Deque[T]) Clear() error {
	for d.length > 0 {
		err := d.slots.scrub(d.head)
		if err != nil {
			return err
		}
		d.head = (d.head + 1) % d.slots.capacity
		d.length--
	}

	d.head = 0
	return nil
}

func (d *Deque[T]) indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < d.length; i++ {
			if !yield(d.slot(i)) {
				return
			}
		}
	}
}

// All iterates from front to back
func (d *Deque[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for index := range d.indices() {
			value, err := d.slots.get(index)
			if err != nil || !yield(value) {
				return
			}
		}
	}
}

// Backward iterates from back to front
func (d *Deque[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := d.length - 1; i >= 0; i-- {
			value, err := d.slots.get(d.slot(i))
			if err != nil || !yield(value) {
				return
			}
		}
	}
}

// Checksum covers the encoded elements from front to back
func (d *Deque[T]) Checksum() (verification.Checksum, error) {
	return d.slots.checksum(d.indices())
}

func (d *Deque[T]) Release() error {
	d.head, d.length = 0, 0
	return d.slots.release()
}
