package factory

import (
	"github.com/wrtgo/foundation/bounded"
	"github.com/wrtgo/foundation/partition"
)

// NewDecoderBuffer builds a byte buffer of capacity bytes charged to the decoder partition
func NewDecoderBuffer(f *Factory, capacity int) (*bounded.Vec[uint8], error) {
	return NewVec(f, partition.Decoder, capacity, bounded.Uint8())
}

// NewRuntimeStack builds a value stack charged to the runtime partition
func NewRuntimeStack[T any](f *Factory, capacity int, codec bounded.Codec[T]) (*bounded.Stack[T], error) {
	return NewStack(f, partition.Runtime, capacity, codec)
}

// NewComponentMap builds a map keyed by names of at most nameLength bytes, charged to the
// component partition
func NewComponentMap[V any](f *Factory, capacity, nameLength int, values bounded.Codec[V]) (*bounded.Map[string, V], error) {
	return NewMap(f, partition.Component, capacity, bounded.FixedString(nameLength), values)
}

// NewFoundationString builds a string of at most capacity bytes charged to the foundation
// partition
func NewFoundationString(f *Factory, capacity int) (*bounded.String, error) {
	return NewString(f, partition.Foundation, capacity)
}
