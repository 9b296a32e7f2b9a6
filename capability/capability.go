// Package capability gates allocation and access requests against a partition's budget before
// any provider is materialized.
package capability

//go:generate mockgen -destination mocks/authority.go -package mocks github.com/wrtgo/foundation/capability Authority

import (
	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/budget"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

// Capability authorizes memory operations on behalf of one partition. A capability can never
// authorize more than it was constructed with; a larger request needs a new capability.
type Capability interface {
	// VerifyOperation checks op against the capability. Allocations may spend budget.
	VerifyOperation(p partition.ID, op Operation) error
	// MaxAllocation returns the largest allocation the capability can ever authorize
	MaxAllocation() int
	VerificationLevel() verification.Level
	// Owner returns the partition the capability was issued for
	Owner() partition.ID
	// CreateProvider materializes a provider of size bytes under the capability
	CreateProvider(size int) (provider.Provider, error)
}

// Authority is the budget a dynamic capability spends against. *budget.Coordinator satisfies it.
type Authority interface {
	RegisterAllocation(p partition.ID, size int) (budget.Handle, error)
	ReturnAllocation(p partition.ID, handle budget.Handle, size int) error
}

var _ Authority = &budget.Coordinator{}

func checkOwner(owner, p partition.ID, op Operation) error {
	if owner != p {
		return &DeniedError{Partition: p, Owner: owner, Operation: op}
	}
	return nil
}

// checkAccess authorizes a read or write against a window of limit bytes
func checkAccess(owner partition.ID, op Operation, limit int) error {
	err := memutils.CheckBounds(op.Offset, op.Length, limit)
	if err != nil {
		return errors.Mark(&DeniedError{Partition: owner, Owner: owner, Operation: op, Limit: limit}, memutils.ErrOutOfBounds)
	}
	return nil
}

func checkSize(owner partition.ID, op Operation, limit int) error {
	if op.Size < 0 {
		return errors.Wrapf(memutils.ErrInvalidSize, "allocation size %d is negative", op.Size)
	}
	if op.Size > limit {
		return &DeniedError{Partition: owner, Owner: owner, Operation: op, Limit: limit}
	}
	return nil
}
