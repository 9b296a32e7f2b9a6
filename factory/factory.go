// Package factory assembles bounded collections in one call: it obtains a provider from the
// capability registered for a partition, sizes it for the requested collection and builds the
// collection on top of it. Every function reports failure through its error result; exhausted
// budgets and full partitions are ordinary outcomes, never panics.
package factory

import (
	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/bounded"
	"github.com/wrtgo/foundation/capability"
	"github.com/wrtgo/foundation/internal/logging"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
	"github.com/wrtgo/foundation/provider"
	"golang.org/x/exp/slog"
)

// Factory builds collections with providers obtained from a capability.Context
type Factory struct {
	logger  *slog.Logger
	context *capability.Context
}

// New creates a factory that obtains providers from context
func New(context *capability.Context, logger *slog.Logger) (*Factory, error) {
	if context == nil {
		return nil, errors.New("factory requires a capability context")
	}

	return &Factory{
		logger:  logging.OrDiscard(logger),
		context: context,
	}, nil
}

// Context returns the capability registry the factory draws from
func (f *Factory) Context() *capability.Context {
	return f.context
}

// Provider obtains a provider of size bytes for p
func (f *Factory) Provider(p partition.ID, size int) (provider.Provider, error) {
	f.logger.Debug("Factory::Provider", slog.String("Partition", p.String()), slog.Int("Size", size))

	if size <= 0 {
		return nil, errors.Wrapf(memutils.ErrInvalidSize, "provider for %s must have a positive size, got %d", p, size)
	}
	return f.context.CreateProvider(p, size)
}

// For starts a Builder for collections owned by p
func (f *Factory) For(p partition.ID) *Builder {
	return &Builder{
		factory:   f,
		partition: p,
	}
}

func NewVec[T any](f *Factory, p partition.ID, capacity int, codec bounded.Codec[T]) (*bounded.Vec[T], error) {
	return BuildVec(f.For(p).Capacity(capacity), codec)
}

func NewStack[T any](f *Factory, p partition.ID, capacity int, codec bounded.Codec[T]) (*bounded.Stack[T], error) {
	return BuildStack(f.For(p).Capacity(capacity), codec)
}

func NewQueue[T any](f *Factory, p partition.ID, capacity int, codec bounded.Codec[T]) (*bounded.Queue[T], error) {
	return BuildQueue(f.For(p).Capacity(capacity), codec)
}

func NewDeque[T any](f *Factory, p partition.ID, capacity int, codec bounded.Codec[T]) (*bounded.Deque[T], error) {
	return BuildDeque(f.For(p).Capacity(capacity), codec)
}

func NewMap[K comparable, V any](f *Factory, p partition.ID, capacity int, keys bounded.Codec[K], values bounded.Codec[V]) (*bounded.Map[K, V], error) {
	return BuildMap(f.For(p).Capacity(capacity), keys, values)
}

func NewSet[K comparable](f *Factory, p partition.ID, capacity int, keys bounded.Codec[K]) (*bounded.Set[K], error) {
	return BuildSet(f.For(p).Capacity(capacity), keys)
}

// NewString builds a string of at most capacity bytes
func NewString(f *Factory, p partition.ID, capacity int) (*bounded.String, error) {
	return BuildString(f.For(p).Capacity(capacity))
}

// NewBitSet builds a bit set of capacity bits
func NewBitSet(f *Factory, p partition.ID, capacity int) (*bounded.BitSet, error) {
	return BuildBitSet(f.For(p).Capacity(capacity))
}
