package budget

import (
	"fmt"

	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
)

// ExceededError is returned from RegisterAllocation when a request does not fit. When Global
// is false the partition's own budget was the limit and Allocated/Budget describe the
// partition; otherwise they describe the whole system.
type ExceededError struct {
	Partition partition.ID
	Requested int
	Allocated int
	Budget    int
	Global    bool
}

func (e *ExceededError) Error() string {
	if e.Global {
		return fmt.Sprintf("partition %s requested %d bytes but only %d of the %d byte system-wide budget remain",
			e.Partition, e.Requested, e.Available(), e.Budget)
	}

	return fmt.Sprintf("partition %s requested %d bytes but only %d of its %d byte budget remain",
		e.Partition, e.Requested, e.Available(), e.Budget)
}

// Available is the headroom that was left when the request was refused
func (e *ExceededError) Available() int {
	if e.Allocated >= e.Budget {
		return 0
	}
	return e.Budget - e.Allocated
}

func (e *ExceededError) Unwrap() error {
	if e.Global {
		return memutils.ErrGlobalBudgetExceeded
	}
	return memutils.ErrPartitionBudgetExceeded
}
