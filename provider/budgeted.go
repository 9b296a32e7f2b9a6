package provider

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
)

// Grant is budget held on behalf of a provider. Return gives it back to whoever issued it.
type Grant interface {
	Return() error
}

// Budgeted ties a Provider to the budget that paid for it. The provider is reference counted:
// Share adds a reference, and the final Release releases the inner provider and returns the
// grant.
type Budgeted struct {
	Provider
	grant Grant
	refs  int32
}

// NewBudgeted wraps inner with a single reference
func NewBudgeted(inner Provider, grant Grant) *Budgeted {
	return &Budgeted{
		Provider: inner,
		grant:    grant,
		refs:     1,
	}
}

// Share adds a reference. Each reference must be released separately.
func (b *Budgeted) Share() (*Budgeted, error) {
	for {
		refs := atomic.LoadInt32(&b.refs)
		if refs <= 0 {
			return nil, errors.WithStack(memutils.ErrReleased)
		}
		if atomic.CompareAndSwapInt32(&b.refs, refs, refs+1) {
			return b, nil
		}
	}
}

// References returns the number of outstanding references
func (b *Budgeted) References() int {
	return int(atomic.LoadInt32(&b.refs))
}

// Release drops one reference. Dropping the last one releases the inner provider and returns
// the grant; both are attempted even if the first fails.
func (b *Budgeted) Release() error {
	for {
		refs := atomic.LoadInt32(&b.refs)
		if refs <= 0 {
			return nil
		}
		if atomic.CompareAndSwapInt32(&b.refs, refs, refs-1) {
			if refs > 1 {
				return nil
			}
			break
		}
	}

	releaseErr := b.Provider.Release()
	returnErr := b.grant.Return()
	return errors.CombineErrors(releaseErr, returnErr)
}

// Inner returns the wrapped provider
func (b *Budgeted) Inner() Provider {
	return b.Provider
}
