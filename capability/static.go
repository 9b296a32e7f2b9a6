package capability

import (
	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

// Static is a capability whose size is fixed when it is declared. It never consults a budget
// authority: the memory it describes is accounted for when the declaration is made.
type Static struct {
	owner partition.ID
	size  int
	level verification.Level
}

var _ Capability = &Static{}

// NewStatic declares a capability of size bytes for p. Declaring cannot fail; an invalid size
// surfaces from CreateProvider.
func NewStatic(p partition.ID, size int, level verification.Level) *Static {
	return &Static{
		owner: p,
		size:  size,
		level: level,
	}
}

func (s *Static) VerifyOperation(p partition.ID, op Operation) error {
	err := checkOwner(s.owner, p, op)
	if err != nil {
		return err
	}

	if op.Kind == OperationAllocate {
		return checkSize(s.owner, op, s.size)
	}
	return checkAccess(s.owner, op, s.size)
}

func (s *Static) MaxAllocation() int { return s.size }

func (s *Static) VerificationLevel() verification.Level { return s.level }

func (s *Static) Owner() partition.ID { return s.owner }

// CreateProvider builds a fixed arena of size bytes. The size must be positive, no larger than
// provider.MaxArenaSize and no larger than the declared size.
func (s *Static) CreateProvider(size int) (provider.Provider, error) {
	if s.size <= 0 || s.size > provider.MaxArenaSize {
		return nil, errors.Wrapf(memutils.ErrInvalidSize, "static capability for %s declares an invalid size of %d bytes", s.owner, s.size)
	}

	err := checkSize(s.owner, Allocate(size), s.size)
	if err != nil {
		return nil, err
	}

	return provider.NewArena(size, s.level)
}
