package factory

import (
	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/bounded"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
	"golang.org/x/exp/slog"
)

// Builder describes a collection before it is built: the partition that pays for it, its
// capacity and optionally a verification level overriding the capability's. Finish it with
// one of the Build functions.
type Builder struct {
	factory   *Factory
	partition partition.ID
	capacity  int
	level     verification.Level
	hasLevel  bool
	shared    *Shared
}

// Level sets the verification level of the collection's provider
func (b *Builder) Level(level verification.Level) *Builder {
	b.level = level
	b.hasLevel = true
	return b
}

// Capacity sets the number of elements, bytes or bits the collection holds
func (b *Builder) Capacity(capacity int) *Builder {
	b.capacity = capacity
	return b
}

func build[C any](b *Builder, kind string, size int, construct func(p provider.Provider) (C, error)) (C, error) {
	var zero C
	if b.factory == nil {
		return zero, errors.Newf("%s builder is not attached to a factory", kind)
	}

	b.factory.logger.Debug("Builder::"+kind,
		slog.String("Partition", b.partition.String()),
		slog.Int("Capacity", b.capacity),
		slog.Int("Size", size),
	)

	if b.capacity <= 0 {
		return zero, errors.Wrapf(memutils.ErrInvalidSize, "%s capacity %d must be positive", kind, b.capacity)
	}
	if size <= 0 || size > provider.MaxArenaSize {
		return zero, errors.Wrapf(memutils.ErrInvalidSize, "%s of capacity %d needs an unsupported provider size", kind, b.capacity)
	}

	p, release, err := b.obtain(kind, size)
	if err != nil {
		return zero, err
	}

	collection, err := construct(p)
	if err != nil {
		// Give the bytes back; the collection never took ownership
		return zero, errors.CombineErrors(err, release())
	}
	return collection, nil
}

// obtain returns the provider a collection is built on and the function that gives it back
func (b *Builder) obtain(kind string, size int) (provider.Provider, func() error, error) {
	if b.shared != nil {
		if b.hasLevel {
			return nil, nil, errors.Newf("%s carved from a shared provider cannot override its verification level", kind)
		}
		return b.shared.carve(size)
	}

	p, err := b.factory.Provider(b.partition, size)
	if err != nil {
		return nil, nil, err
	}

	if b.hasLevel {
		p.SetVerificationLevel(b.level)
	}
	return p, p.Release, nil
}

func BuildVec[T any](b *Builder, codec bounded.Codec[T]) (*bounded.Vec[T], error) {
	if codec == nil {
		return nil, errors.New("vector requires a codec")
	}

	return build(b, "Vec", bounded.VecBytes(b.capacity, codec), func(p provider.Provider) (*bounded.Vec[T], error) {
		return bounded.NewVec(p, b.capacity, codec)
	})
}

func BuildStack[T any](b *Builder, codec bounded.Codec[T]) (*bounded.Stack[T], error) {
	if codec == nil {
		return nil, errors.New("stack requires a codec")
	}

	return build(b, "Stack", bounded.StackBytes(b.capacity, codec), func(p provider.Provider) (*bounded.Stack[T], error) {
		return bounded.NewStack(p, b.capacity, codec)
	})
}

func BuildQueue[T any](b *Builder, codec bounded.Codec[T]) (*bounded.Queue[T], error) {
	if codec == nil {
		return nil, errors.New("queue requires a codec")
	}

	return build(b, "Queue", bounded.QueueBytes(b.capacity, codec), func(p provider.Provider) (*bounded.Queue[T], error) {
		return bounded.NewQueue(p, b.capacity, codec)
	})
}

func BuildDeque[T any](b *Builder, codec bounded.Codec[T]) (*bounded.Deque[T], error) {
	if codec == nil {
		return nil, errors.New("deque requires a codec")
	}

	return build(b, "Deque", bounded.DequeBytes(b.capacity, codec), func(p provider.Provider) (*bounded.Deque[T], error) {
		return bounded.NewDeque(p, b.capacity, codec)
	})
}

func BuildMap[K comparable, V any](b *Builder, keys bounded.Codec[K], values bounded.Codec[V]) (*bounded.Map[K, V], error) {
	if keys == nil || values == nil {
		return nil, errors.New("map requires key and value codecs")
	}

	return build(b, "Map", bounded.MapBytes(b.capacity, keys, values), func(p provider.Provider) (*bounded.Map[K, V], error) {
		return bounded.NewMap(p, b.capacity, keys, values)
	})
}

func BuildSet[K comparable](b *Builder, keys bounded.Codec[K]) (*bounded.Set[K], error) {
	if keys == nil {
		return nil, errors.New("set requires a key codec")
	}

	return build(b, "Set", bounded.SetBytes(b.capacity, keys), func(p provider.Provider) (*bounded.Set[K], error) {
		return bounded.NewSet(p, b.capacity, keys)
	})
}

func BuildString(b *Builder) (*bounded.String, error) {
	return build(b, "String", bounded.StringBytes(b.capacity), func(p provider.Provider) (*bounded.String, error) {
		return bounded.NewString(p, b.capacity)
	})
}

func BuildBitSet(b *Builder) (*bounded.BitSet, error) {
	return build(b, "BitSet", bounded.BitSetBytes(b.capacity), func(p provider.Provider) (*bounded.BitSet, error) {
		return bounded.NewBitSet(p, b.capacity)
	})
}
