package bounded

import (
	"iter"

	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

// Queue is a fixed-capacity FIFO queue over a ring of slots. Push writes at tail and Pop reads
// at head; neither moves any other element.
type Queue[T any] struct {
	slots  typedSlots[T]
	head   int
	tail   int
	length int
}

// QueueBytes returns the number of provider bytes a Queue of capacity elements needs
func QueueBytes[T any](capacity int, codec Codec[T]) int {
	return capacity * codec.Size()
}

// NewQueue creates an empty queue of capacity elements stored in p
func NewQueue[T any](p provider.Provider, capacity int, codec Codec[T]) (*Queue[T], error) {
	slots, err := newTypedSlots(p, capacity, codec)
	if err != nil {
		return nil, err
	}

	return &Queue[T]{slots: slots}, nil
}

func (q *Queue[T]) Len() int { return q.length }

func (q *Queue[T]) Capacity() int { return q.slots.capacity }

func (q *Queue[T]) IsEmpty() bool { return q.length == 0 }

func (q *Queue[T]) IsFull() bool { return q.length == q.slots.capacity }

func (q *Queue[T]) Provider() provider.Provider { return q.slots.provider }

// slot returns the ring index of the i'th element in FIFO order
func (q *Queue[T]) slot(i int) int {
	return (q.head + i) % q.slots.capacity
}

// Push appends value at the tail
func (q *Queue[T]) Push(value T) error {
	if q.IsFull() {
		return capacityError(q.slots.capacity)
	}

	err := q.slots.set(q.tail, value)
	if err != nil {
		return err
	}

	q.tail = (q.tail + 1) % q.slots.capacity
	q.length++
	return nil
}

// Pop removes and returns the element at the head
func (q *Queue[T]) Pop() (T, bool, error) {
	var zero T
	if q.length == 0 {
		return zero, false, nil
	}

	value, err := q.slots.get(q.head)
	if err != nil {
		return zero, false, err
	}

	err = q.slots.scrub(q.head)
	if err != nil {
		return zero, false, err
	}

	q.head = (q.head + 1) % q.slots.capacity
	q.length--
	return value, true, nil
}

// Peek returns the element at the head without removing it
func (q *Queue[T]) Peek() (T, bool, error) {
	var zero T
	if q.length == 0 {
		return zero, false, nil
	}

	value, err := q.slots.get(q.head)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Clear removes every element, scrubs their slots and rewinds head and tail
func (q *Queue[T]) Clear() error {
	for q.length > 0 {
		err := q.slots.scrub(q.head)
		if err != nil {
			return err
		}
		q.head = (q.head + 1) % q.slots.capacity
		q.length--
	}

	q.head = 0
	q.tail = 0
	return nil
}

func (q *Queue[T]) indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < q.length; i++ {
			if !yield(q.slot(i)) {
				return
			}
		}
	}
}

// All iterates over the elements in FIFO order
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for index := range q.indices() {
			value, err := q.slots.get(index)
			if err != nil || !yield(value) {
				return
			}
		}
	}
}

// Checksum covers the encoded elements in FIFO order, so it does not depend on where in the
// ring the elements happen to sit
func (q *Queue[T]) Checksum() (verification.Checksum, error) {
	return q.slots.checksum(q.indices())
}

// Clone copies the elements in FIFO order into a new queue of the same capacity stored in p.
// The clone starts at the beginning of its ring.
func (q *Queue[T]) Clone(p provider.Provider) (*Queue[T], error) {
	clone, err := NewQueue(p, q.slots.capacity, q.slots.codec)
	if err != nil {
		return nil, err
	}

	for index := range q.indices() {
		record, err := q.slots.load(index)
		if err != nil {
			return nil, err
		}

		err = clone.slots.store(clone.tail, record)
		if err != nil {
			return nil, err
		}
		clone.tail = (clone.tail + 1) % clone.slots.capacity
		clone.length++
	}

	return clone, nil
}

// MarshalBinary encodes the elements in FIFO order
func (q *Queue[T]) MarshalBinary() ([]byte, error) {
	return marshalRecords(&q.slots.slots, q.length, q.slot)
}

// UnmarshalBinary replaces the contents with elements encoded by MarshalBinary
func (q *Queue[T]) UnmarshalBinary(data []byte) error {
	count, err := unmarshalHeader(data, q.slots.capacity, q.slots.size)
	if err != nil {
		return err
	}

	err = q.Clear()
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		err = q.slots.store(q.tail, record(data, q.slots.size, i))
		if err != nil {
			return err
		}
		q.tail = (q.tail + 1) % q.slots.capacity
		q.length++
	}

	return nil
}

// Release clears the queue's indices and releases its provider
func (q *Queue[T]) Release() error {
	q.head, q.tail, q.length = 0, 0, 0
	return q.slots.release()
}
