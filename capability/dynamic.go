package capability

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/wrtgo/foundation/budget"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

// Dynamic is a capability that spends budget from an Authority as allocations are verified.
// Every grant it obtains is kept in a ledger until it is returned, so that the capability can
// report and give back what it holds.
type Dynamic struct {
	authority     Authority
	owner         partition.ID
	maxAllocation int
	level         verification.Level

	mutex       sync.Mutex
	grants      *swiss.Map[budget.Handle, int]
	outstanding int
}

var _ Capability = &Dynamic{}

// NewDynamic declares a capability for p that may authorize allocations of up to
// maxAllocation bytes each, spending against authority
func NewDynamic(authority Authority, maxAllocation int, p partition.ID, level verification.Level) *Dynamic {
	return &Dynamic{
		authority:     authority,
		owner:         p,
		maxAllocation: maxAllocation,
		level:         level,
		grants:        swiss.NewMap[budget.Handle, int](8),
	}
}

// Grant is budget obtained by a Dynamic capability. It satisfies provider.Grant.
type Grant struct {
	capability *Dynamic
	Handle     budget.Handle
	Size       int
}

var _ provider.Grant = Grant{}

// Return gives the grant back to the authority. Returning a grant twice is reported as
// memutils.ErrAllocationUnderflow and leaves the authority untouched.
func (g Grant) Return() error {
	return g.capability.returnGrant(g.Handle)
}

// Reserve spends size bytes of budget and records the grant
func (d *Dynamic) Reserve(size int) (Grant, error) {
	op := Allocate(size)
	err := checkSize(d.owner, op, d.maxAllocation)
	if err != nil {
		return Grant{}, err
	}

	handle, err := d.authority.RegisterAllocation(d.owner, size)
	if err != nil {
		return Grant{}, err
	}

	d.mutex.Lock()
	d.grants.Put(handle, size)
	d.outstanding += size
	d.mutex.Unlock()

	return Grant{capability: d, Handle: handle, Size: size}, nil
}

func (d *Dynamic) returnGrant(handle budget.Handle) error {
	d.mutex.Lock()
	size, ok := d.grants.Get(handle)
	if ok {
		d.grants.Delete(handle)
		d.outstanding -= size
	}
	d.mutex.Unlock()

	if !ok {
		return errors.Wrapf(memutils.ErrAllocationUnderflow, "grant %d for partition %s was already returned", handle, d.owner)
	}

	err := d.authority.ReturnAllocation(d.owner, handle, size)
	if err != nil {
		// Keep the ledger consistent with the authority
		d.mutex.Lock()
		d.grants.Put(handle, size)
		d.outstanding += size
		d.mutex.Unlock()
		return err
	}

	return nil
}

// VerifyOperation authorizes op. An Allocate spends budget and the resulting grant stays in the
// ledger until Close; Read and Write are only checked against MaxAllocation and never touch the
// authority.
func (d *Dynamic) VerifyOperation(p partition.ID, op Operation) error {
	err := checkOwner(d.owner, p, op)
	if err != nil {
		return err
	}

	switch op.Kind {
	case OperationAllocate:
		_, err = d.Reserve(op.Size)
		return err
	case OperationRead, OperationWrite:
		return checkAccess(d.owner, op, d.maxAllocation)
	}

	return errors.Newf("unknown operation kind %s", op.Kind)
}

func (d *Dynamic) MaxAllocation() int { return d.maxAllocation }

func (d *Dynamic) VerificationLevel() verification.Level { return d.level }

func (d *Dynamic) Owner() partition.ID { return d.owner }

// Outstanding returns the number of bytes granted and not yet returned
func (d *Dynamic) Outstanding() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.outstanding
}

// GrantCount returns the number of grants not yet returned
func (d *Dynamic) GrantCount() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.grants.Count()
}

// CreateProvider reserves size bytes and returns a fixed arena that gives the reservation back
// when it is finally released. Every read and write on the provider is checked against the
// capability.
func (d *Dynamic) CreateProvider(size int) (provider.Provider, error) {
	if size <= 0 || size > provider.MaxArenaSize {
		return nil, errors.Wrapf(memutils.ErrInvalidSize, "cannot create a provider of %d bytes", size)
	}

	grant, err := d.Reserve(size)
	if err != nil {
		return nil, err
	}

	arena, err := provider.NewArena(size, d.level)
	if err != nil {
		return nil, errors.CombineErrors(err, grant.Return())
	}

	guarded := provider.NewGuarded(arena, provider.AccessCheckerFunc(func(kind provider.AccessKind, offset, length int) error {
		if kind == provider.AccessRead {
			return checkAccess(d.owner, Read(offset, length), size)
		}
		return checkAccess(d.owner, Write(offset, length), size)
	}))

	return provider.NewBudgeted(guarded, grant), nil
}

// Close returns every outstanding grant. Providers created from the capability must not be
// used afterwards.
func (d *Dynamic) Close() error {
	d.mutex.Lock()
	handles := make([]budget.Handle, 0, d.grants.Count())
	d.grants.Iter(func(handle budget.Handle, _ int) bool {
		handles = append(handles, handle)
		return false
	})
	d.mutex.Unlock()

	var err error
	for _, handle := range handles {
		err = errors.CombineErrors(err, d.returnGrant(handle))
	}

	return err
}
