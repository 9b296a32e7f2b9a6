package factory

import (
	"github.com/wrtgo/foundation/partition"
	"github.com/wrtgo/foundation/provider"
	"golang.org/x/exp/slog"
)

// sharedAlignment keeps every carved collection, and every counter, naturally aligned for
// eight-byte atomics
const sharedAlignment = 8

// Shared is one provider, paid for once by a partition, that several collections are carved
// out of. Collections built from it use the shared provider's verification level. Releasing
// such a collection only detaches it; the bytes go back when the Shared itself is released.
type Shared struct {
	factory   *Factory
	partition partition.ID
	provider  provider.Provider
	carver    *provider.Carver
}

// Shared obtains a provider of size bytes for p to carve collections out of
func (f *Factory) Shared(p partition.ID, size int) (*Shared, error) {
	f.logger.Debug("Factory::Shared", slog.String("Partition", p.String()), slog.Int("Size", size))

	shared, err := f.Provider(p, size)
	if err != nil {
		return nil, err
	}

	return &Shared{
		factory:   f,
		partition: p,
		provider:  shared,
		carver:    provider.NewCarver(shared, true),
	}, nil
}

// Builder starts a Builder whose collection is carved out of the shared provider
func (s *Shared) Builder() *Builder {
	return &Builder{
		factory:   s.factory,
		partition: s.partition,
		shared:    s,
	}
}

// Counter carves an eight-byte atomic counter, starting at zero, out of the shared provider
func (s *Shared) Counter() (provider.Uint64View, error) {
	region, err := s.carver.Carve(8, sharedAlignment)
	if err != nil {
		return provider.Uint64View{}, err
	}

	counter, err := provider.AtomicUint64At(region, 0)
	if err != nil {
		return provider.Uint64View{}, err
	}
	counter.Store(0)
	return counter, nil
}

func (s *Shared) carve(size int) (provider.Provider, func() error, error) {
	region, err := s.carver.Carve(size, sharedAlignment)
	if err != nil {
		return nil, nil, err
	}

	return region, func() error { return s.carver.Pop(region) }, nil
}

func (s *Shared) Provider() provider.Provider { return s.provider }

// Used returns the bytes carved so far, including alignment padding
func (s *Shared) Used() int { return s.carver.Used() }

func (s *Shared) Remaining() int { return s.carver.Remaining() }

// CheckCorruption reports overruns past any carved collection. Only builds with
// debug_mem_utils place the markers it checks.
func (s *Shared) CheckCorruption() error { return s.carver.CheckCorruption() }

// Release forgets every carved collection and returns the provider's budget
func (s *Shared) Release() error {
	s.factory.logger.Debug("Shared::Release", slog.String("Partition", s.partition.String()))

	s.carver.Reset()
	return s.provider.Release()
}
