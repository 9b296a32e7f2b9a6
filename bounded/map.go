package bounded

import (
	"iter"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/maphash"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

const (
	slotEmpty    byte = 0
	slotOccupied byte = 1
)

// Map is a fixed-capacity hash map using open addressing with linear probing. Each slot holds
// an occupancy byte, the encoded key and the encoded value. Removal shifts later members of a
// probe run backwards instead of leaving tombstones, so a probe can always stop at the first
// empty slot; no probe visits more than Capacity slots.
type Map[K comparable, V any] struct {
	slots  slots
	keys   Codec[K]
	values Codec[V]
	hasher maphash.Hasher[K]
	length int
	record []byte
}

// MapBytes returns the number of provider bytes a Map of capacity entries needs
func MapBytes[K comparable, V any](capacity int, keys Codec[K], values Codec[V]) int {
	return capacity * (1 + keys.Size() + values.Size())
}

// NewMap creates an empty map of capacity entries stored in p
func NewMap[K comparable, V any](p provider.Provider, capacity int, keys Codec[K], values Codec[V]) (*Map[K, V], error) {
	if keys == nil || values == nil {
		return nil, errors.New("map requires key and value codecs")
	}

	size := 1 + keys.Size() + values.Size()
	slots, err := newSlots(p, capacity, size)
	if err != nil {
		return nil, err
	}

	err = slots.scrubRange(0, capacity)
	if err != nil {
		return nil, err
	}

	return &Map[K, V]{
		slots:  slots,
		keys:   keys,
		values: values,
		hasher: maphash.NewHasher[K](),
		record: make([]byte, size),
	}, nil
}

func (m *Map[K, V]) Len() int { return m.length }

func (m *Map[K, V]) Capacity() int { return m.slots.capacity }

func (m *Map[K, V]) IsEmpty() bool { return m.length == 0 }

func (m *Map[K, V]) IsFull() bool { return m.length == m.slots.capacity }

func (m *Map[K, V]) Provider() provider.Provider { return m.slots.provider }

func (m *Map[K, V]) home(key K) int {
	return int(m.hasher.Hash(key) % uint64(m.slots.capacity))
}

func (m *Map[K, V]) readKey(index int) (K, bool, error) {
	var key K
	record, err := m.slots.load(index)
	if err != nil {
		return key, false, err
	}

	if record[0] != slotOccupied {
		return key, false, nil
	}
	return m.keys.Decode(record[1 : 1+m.keys.Size()]), true, nil
}

func (m *Map[K, V]) readEntry(index int) (K, V, error) {
	var key K
	var value V
	record, err := m.slots.load(index)
	if err != nil {
		return key, value, err
	}

	keySize := m.keys.Size()
	key = m.keys.Decode(record[1 : 1+keySize])
	value = m.values.Decode(record[1+keySize:])
	return key, value, nil
}

// find probes from the key's home slot. It returns the slot holding key, or else the empty
// slot that ended the probe, or -1 when every slot was visited without finding either.
func (m *Map[K, V]) find(key K) (int, bool, error) {
	home := m.home(key)
	for probe := 0; probe < m.slots.capacity; probe++ {
		index := (home + probe) % m.slots.capacity

		slotKey, occupied, err := m.readKey(index)
		if err != nil {
			return -1, false, err
		}
		if !occupied {
			return index, false, nil
		}
		if slotKey == key {
			return index, true, nil
		}
	}

	return -1, false, nil
}

// Insert stores value under key and returns the value it replaced, if any. A full map still
// accepts keys it already holds.
func (m *Map[K, V]) Insert(key K, value V) (V, bool, error) {
	var previous V

	keySize := m.keys.Size()
	m.record[0] = slotOccupied
	err := m.keys.Encode(m.record[1:1+keySize], key)
	if err != nil {
		return previous, false, err
	}
	err = m.values.Encode(m.record[1+keySize:], value)
	if err != nil {
		return previous, false, err
	}

	index, found, err := m.find(key)
	if err != nil {
		return previous, false, err
	}

	if found {
		_, previous, err = m.readEntry(index)
		if err != nil {
			return previous, false, err
		}
	} else if index < 0 {
		return previous, false, capacityError(m.slots.capacity)
	}

	err = m.slots.store(index, m.record)
	if err != nil {
		return previous, false, err
	}

	if !found {
		m.length++
	}
	return previous, found, nil
}

// Get returns the value stored under key
func (m *Map[K, V]) Get(key K) (V, bool, error) {
	var value V
	index, found, err := m.find(key)
	if err != nil || !found {
		return value, false, err
	}

	_, value, err = m.readEntry(index)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

func (m *Map[K, V]) ContainsKey(key K) (bool, error) {
	_, found, err := m.find(key)
	return found, err
}

// distance returns how far index is from home along the probe sequence
func (m *Map[K, V]) distance(home, index int) int {
	return (index - home + m.slots.capacity) % m.slots.capacity
}

// Remove deletes key and returns the value that was stored under it
func (m *Map[K, V]) Remove(key K) (V, bool, error) {
	var value V
	index, found, err := m.find(key)
	if err != nil || !found {
		return value, false, err
	}

	_, value, err = m.readEntry(index)
	if err != nil {
		return value, false, err
	}

	hole := index
	next := index
	for step := 1; step < m.slots.capacity; step++ {
		next = (next + 1) % m.slots.capacity

		slotKey, occupied, err := m.readKey(next)
		if err != nil {
			return value, false, err
		}
		if !occupied {
			break
		}

		// The entry may fill the hole only if the hole lies on its own probe path
		home := m.home(slotKey)
		if m.distance(home, hole) < m.distance(home, next) {
			err = m.slots.move(next, hole)
			if err != nil {
				return value, false, err
			}
			hole = next
		}
	}

	err = m.slots.scrub(hole)
	if err != nil {
		return value, false, err
	}

	m.length--
	return value, true, nil
}

// Clear removes every entry and scrubs the table
func (m *Map[K, V]) Clear() error {
	if m.length == 0 {
		return nil
	}

	err := m.slots.scrubRange(0, m.slots.capacity)
	if err != nil {
		return err
	}

	m.length = 0
	return nil
}

func (m *Map[K, V]) occupied() iter.Seq[int] {
	return func(yield func(int) bool) {
		for index := 0; index < m.slots.capacity; index++ {
			_, occupied, err := m.readKey(index)
			if err != nil {
				return
			}
			if occupied && !yield(index) {
				return
			}
		}
	}
}

// All iterates over the entries in slot order
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for index := range m.occupied() {
			key, value, err := m.readEntry(index)
			if err != nil || !yield(key, value) {
				return
			}
		}
	}
}

// Keys iterates over the keys in slot order
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for key := range m.All() {
			if !yield(key) {
				return
			}
		}
	}
}

// Values iterates over the values in slot order
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, value := range m.All() {
			if !yield(value) {
				return
			}
		}
	}
}

// Checksum covers the occupied slots in slot order
func (m *Map[K, V]) Checksum() (verification.Checksum, error) {
	return m.slots.checksum(m.occupied())
}

func (m *Map[K, V]) Release() error {
	m.length = 0
	return m.slots.release()
}
