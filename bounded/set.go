package bounded

import (
	"iter"

	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

// Set is a fixed-capacity hash set with the same layout and probing as Map
type Set[K comparable] struct {
	members Map[K, struct{}]
}

// SetBytes returns the number of provider bytes a Set of capacity members needs
func SetBytes[K comparable](capacity int, keys Codec[K]) int {
	return MapBytes[K, struct{}](capacity, keys, unitCodec{})
}

// NewSet creates an empty set of capacity members stored in p
func NewSet[K comparable](p provider.Provider, capacity int, keys Codec[K]) (*Set[K], error) {
	members, err := NewMap[K, struct{}](p, capacity, keys, unitCodec{})
	if err != nil {
		return nil, err
	}
	return &Set[K]{members: *members}, nil
}

func (s *Set[K]) Len() int { return s.members.Len() }

func (s *Set[K]) Capacity() int { return s.members.Capacity() }

func (s *Set[K]) IsEmpty() bool { return s.members.IsEmpty() }

func (s *Set[K]) IsFull() bool { return s.members.IsFull() }

func (s *Set[K]) Provider() provider.Provider { return s.members.Provider() }

// Insert adds key and reports whether it was not already present
func (s *Set[K]) Insert(key K) (bool, error) {
	_, replaced, err := s.members.Insert(key, struct{}{})
	if err != nil {
		return false, err
	}
	return !replaced, nil
}

func (s *Set[K]) Contains(key K) (bool, error) { return s.members.ContainsKey(key) }

// Remove deletes key and reports whether it was present
func (s *Set[K]) Remove(key K) (bool, error) {
	_, removed, err := s.members.Remove(key)
	return removed, err
}

func (s *Set[K]) Clear() error { return s.members.Clear() }

// All iterates over the members in slot order
func (s *Set[K]) All() iter.Seq[K] { return s.members.Keys() }

func (s *Set[K]) Checksum() (verification.Checksum, error) { return s.members.Checksum() }

func (s *Set[K]) Release() error { return s.members.Release() }
