package bounded

import (
	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
)

var (
	// ErrInvalidUTF8 is returned when a bounded string is given bytes that are not valid UTF-8
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
	// ErrItemTooLarge is returned when a single element can never fit in a collection
	ErrItemTooLarge = errors.Mark(errors.New("item too large for collection"), memutils.ErrCapacityExceeded)
)

func capacityError(capacity int) error {
	return errors.WithStack(&memutils.CapacityError{Capacity: capacity})
}
