package bounded

import (
	"iter"

	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

// Stack is a fixed-capacity LIFO stack
type Stack[T any] struct {
	vec Vec[T]
}

// StackBytes returns the number of provider bytes a Stack of capacity elements needs
func StackBytes[T any](capacity int, codec Codec[T]) int {
	return VecBytes(capacity, codec)
}

// NewStack creates an empty stack of capacity elements stored in p
func NewStack[T any](p provider.Provider, capacity int, codec Codec[T]) (*Stack[T], error) {
	vec, err := NewVec(p, capacity, codec)
	if err != nil {
		return nil, err
	}
	return &Stack[T]{vec: *vec}, nil
}

func (s *Stack[T]) Len() int { return s.vec.Len() }

func (s *Stack[T]) Capacity() int { return s.vec.Capacity() }

func (s *Stack[T]) IsEmpty() bool { return s.vec.IsEmpty() }

func (s *Stack[T]) IsFull() bool { return s.vec.IsFull() }

func (s *Stack[T]) Provider() provider.Provider { return s.vec.Provider() }

// Push places value on top of the stack
func (s *Stack[T]) Push(value T) error { return s.vec.Push(value) }

// Pop removes and returns the top of the stack
func (s *Stack[T]) Pop() (T, bool, error) { return s.vec.Pop() }

// Peek returns the top of the stack without removing it
func (s *Stack[T]) Peek() (T, bool, error) { return s.vec.Get(s.vec.Len() - 1) }

func (s *Stack[T]) Clear() error { return s.vec.Clear() }

// All iterates from the top of the stack to the bottom, the order Pop would return elements
func (s *Stack[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := s.vec.length - 1; i >= 0; i-- {
			value, err := s.vec.slots.get(i)
			if err != nil || !yield(value) {
				return
			}
		}
	}
}

// Checksum covers the encoded elements from bottom to top
func (s *Stack[T]) Checksum() (verification.Checksum, error) { return s.vec.Checksum() }

func (s *Stack[T]) MarshalBinary() ([]byte, error) { return s.vec.MarshalBinary() }

func (s *Stack[T]) UnmarshalBinary(data []byte) error { return s.vec.UnmarshalBinary(data) }

func (s *Stack[T]) Release() error { return s.vec.Release() }
