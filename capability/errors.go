package capability

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
)

var (
	// ErrNoCapability is returned by a Context for partitions without a registered capability
	ErrNoCapability = errors.Mark(errors.New("no capability registered for partition"), memutils.ErrCapabilityDenied)
	// ErrDuplicateCapability is returned when registering a second capability for a partition
	ErrDuplicateCapability = errors.New("capability already registered for partition")
)

// DeniedError is returned when a capability refuses an operation. It carries enough context to
// explain the refusal: the partition asked for, the operation, and the limit it ran into.
type DeniedError struct {
	Partition partition.ID
	Owner     partition.ID
	Operation Operation
	Limit     int
}

func (e *DeniedError) Error() string {
	if e.Partition != e.Owner {
		return fmt.Sprintf("capability for partition %s cannot authorize %s for partition %s", e.Owner, e.Operation, e.Partition)
	}
	return fmt.Sprintf("capability for partition %s denied %s: limit is %d bytes", e.Owner, e.Operation, e.Limit)
}

// Available returns the headroom the capability had when it refused the operation
func (e *DeniedError) Available() int {
	if e.Operation.Kind == OperationAllocate {
		return e.Limit
	}
	if available := e.Limit - e.Operation.Offset; available > 0 {
		return available
	}
	return 0
}

func (e *DeniedError) Unwrap() error { return memutils.ErrCapabilityDenied }
