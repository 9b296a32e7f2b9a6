package budget

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/internal/logging"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
	"golang.org/x/exp/slog"
)

// Handle identifies one successful RegisterAllocation call so that the matching
// ReturnAllocation can be correlated with it. Handles increase monotonically.
type Handle uint64

// NoHandle is never issued by a Coordinator
const NoHandle Handle = 0

// ErrInvalidHandle is returned when NoHandle is passed to ReturnAllocation
var ErrInvalidHandle = errors.New("invalid allocation handle")

const (
	stateUninitialized uint32 = iota
	stateInitializing
	stateInitialized
)

// Entry is a single row of a partition budget table
type Entry struct {
	Partition partition.ID
	Budget    int
}

// Coordinator is the single source of truth for how many bytes each partition, and the
// system as a whole, currently has allocated. All counters are atomics; no lock is ever held.
//
// A Coordinator must be initialized exactly once with Initialize before allocations can be
// registered.
type Coordinator struct {
	logger *slog.Logger
	state  uint32

	budgets   [partition.MaxPartitions]int64
	allocated [partition.MaxPartitions]int64
	peak      [partition.MaxPartitions]int64
	count     [partition.MaxPartitions]int64

	totalBudget    int64
	totalAllocated int64
	totalPeak      int64

	nextHandle uint64
}

var _ memutils.Validatable = &Coordinator{}

// NewCoordinator creates an uninitialized coordinator. A nil logger discards all output.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	return &Coordinator{
		logger: logging.OrDiscard(logger),
	}
}

// Initialize installs the partition budget table. It may succeed only once: later calls fail
// with memutils.ErrAlreadyInitialized. Every failure is a configuration error; a failed call
// leaves the coordinator uninitialized so that a corrected table can be installed.
//
// Entries naming the same partition more than once are summed.
func (c *Coordinator) Initialize(budgets []Entry, totalBudget int) error {
	c.logger.Debug("Coordinator::Initialize", slog.Int("Partitions", len(budgets)), slog.Int("TotalBudget", totalBudget))

	if !atomic.CompareAndSwapUint32(&c.state, stateUninitialized, stateInitializing) {
		return errors.Mark(errors.WithStack(memutils.ErrAlreadyInitialized), memutils.ErrConfiguration)
	}

	var table [partition.MaxPartitions]int64
	err := buildTable(budgets, totalBudget, &table)
	if err != nil {
		atomic.StoreUint32(&c.state, stateUninitialized)
		c.logger.Error("memory budget configuration rejected", slog.Any("error", err))
		return err
	}

	for i := range table {
		atomic.StoreInt64(&c.budgets[i], table[i])
	}
	atomic.StoreInt64(&c.totalBudget, int64(totalBudget))
	atomic.StoreUint32(&c.state, stateInitialized)

	return nil
}

func buildTable(budgets []Entry, totalBudget int, table *[partition.MaxPartitions]int64) error {
	if totalBudget < 0 {
		return errors.Mark(errors.Newf("total budget %d is negative", totalBudget), memutils.ErrConfiguration)
	}

	var sum int64
	for _, entry := range budgets {
		err := entry.Partition.CheckIndex()
		if err != nil {
			return errors.Mark(err, memutils.ErrConfiguration)
		}

		if entry.Budget < 0 {
			return errors.Mark(errors.Newf("budget for partition %s is negative (%d)", entry.Partition, entry.Budget), memutils.ErrConfiguration)
		}

		// sum <= totalBudget here, so the subtraction cannot overflow and neither can the
		// per-partition add, which is bounded by sum
		if int64(entry.Budget) > int64(totalBudget)-sum {
			return errors.Mark(
				errors.Wrapf(memutils.ErrPartitionBudgetExceeded, "partition budgets sum to more than the total budget of %d bytes", totalBudget),
				memutils.ErrConfiguration,
			)
		}

		table[entry.Partition.AsIndex()] += int64(entry.Budget)
		sum += int64(entry.Budget)
	}

	return nil
}

// SetTotalBudget changes the system-wide limit after initialization, typically to react to
// memory pressure from the host. The new limit may be below the sum of the partition budgets,
// in which case the global check starts to bind before the partition checks do. It may not be
// below the number of bytes currently allocated. A registration that passed its checks just
// before the store may still complete against the old limit.
func (c *Coordinator) SetTotalBudget(totalBudget int) error {
	c.logger.Debug("Coordinator::SetTotalBudget", slog.Int("TotalBudget", totalBudget))

	if atomic.LoadUint32(&c.state) != stateInitialized {
		return errors.WithStack(memutils.ErrNotInitialized)
	}

	if totalBudget < 0 {
		return errors.Wrapf(memutils.ErrInvalidSize, "total budget %d is negative", totalBudget)
	}

	allocated := atomic.LoadInt64(&c.totalAllocated)
	if int64(totalBudget) < allocated {
		return errors.Wrapf(memutils.ErrGlobalBudgetExceeded, "cannot lower the total budget to %d bytes while %d are allocated", totalBudget, allocated)
	}

	atomic.StoreInt64(&c.totalBudget, int64(totalBudget))
	return nil
}

// IsInitialized reports whether Initialize has completed successfully
func (c *Coordinator) IsInitialized() bool {
	return atomic.LoadUint32(&c.state) == stateInitialized
}

func (c *Coordinator) checkReady(p partition.ID, size int) error {
	if atomic.LoadUint32(&c.state) != stateInitialized {
		return errors.WithStack(memutils.ErrNotInitialized)
	}

	err := p.CheckIndex()
	if err != nil {
		return err
	}

	if size < 0 {
		return errors.Wrapf(memutils.ErrInvalidSize, "allocation size %d is negative", size)
	}

	return nil
}

// RegisterAllocation reserves size bytes for partition p against both the partition's budget
// and the total budget. On success a fresh Handle is returned; on failure no counter is left
// modified and the error is an *ExceededError that distinguishes partition-local from
// system-wide exhaustion.
func (c *Coordinator) RegisterAllocation(p partition.ID, size int) (Handle, error) {
	c.logger.Debug("Coordinator::RegisterAllocation", slog.String("Partition", p.String()), slog.Int("Size", size))

	err := c.checkReady(p, size)
	if err != nil {
		return NoHandle, err
	}

	index := p.AsIndex()
	request := int64(size)

	var partitionVal int64
	for {
		partitionVal = atomic.LoadInt64(&c.allocated[index])
		partitionBudget := atomic.LoadInt64(&c.budgets[index])
		totalBudget := atomic.LoadInt64(&c.totalBudget)

		if request > partitionBudget-partitionVal {
			c.logger.Warn("partition memory budget exceeded",
				slog.String("Partition", p.String()),
				slog.Int("Requested", size),
				slog.Int64("Allocated", partitionVal),
				slog.Int64("Budget", partitionBudget))
			return NoHandle, &ExceededError{
				Partition: p,
				Requested: size,
				Allocated: int(partitionVal),
				Budget:    int(partitionBudget),
			}
		}

		totalVal := atomic.LoadInt64(&c.totalAllocated)
		if request > totalBudget-totalVal {
			return NoHandle, c.globalExceeded(p, size, totalVal, totalBudget)
		}

		if atomic.CompareAndSwapInt64(&c.allocated[index], partitionVal, partitionVal+request) {
			break
		}
	}

	// Another partition may have taken the remaining global headroom since the check above.
	// Losing that race undoes the partition reservation.
	var totalVal int64
	for {
		totalVal = atomic.LoadInt64(&c.totalAllocated)
		totalBudget := atomic.LoadInt64(&c.totalBudget)
		if request > totalBudget-totalVal {
			atomic.AddInt64(&c.allocated[index], -request)
			return NoHandle, c.globalExceeded(p, size, totalVal, totalBudget)
		}

		if atomic.CompareAndSwapInt64(&c.totalAllocated, totalVal, totalVal+request) {
			break
		}
	}

	updatePeak(&c.peak[index], partitionVal+request)
	updatePeak(&c.totalPeak, totalVal+request)
	atomic.AddInt64(&c.count[index], 1)

	handle := Handle(atomic.AddUint64(&c.nextHandle, 1))
	if handle == NoHandle {
		// The counter wrapped; skip the reserved value
		handle = Handle(atomic.AddUint64(&c.nextHandle, 1))
	}

	return handle, nil
}

func (c *Coordinator) globalExceeded(p partition.ID, size int, totalVal, totalBudget int64) error {
	c.logger.Warn("system-wide memory budget exceeded",
		slog.String("Partition", p.String()),
		slog.Int("Requested", size),
		slog.Int64("TotalAllocated", totalVal),
		slog.Int64("TotalBudget", totalBudget))

	return &ExceededError{
		Partition: p,
		Requested: size,
		Allocated: int(totalVal),
		Budget:    int(totalBudget),
		Global:    true,
	}
}

func updatePeak(peak *int64, value int64) {
	for {
		current := atomic.LoadInt64(peak)
		if value <= current || atomic.CompareAndSwapInt64(peak, current, value) {
			return
		}
	}
}

// ReturnAllocation releases size bytes previously registered for partition p under handle.
// Returning more than the partition (or the system) currently has allocated is an internal
// consistency fault: it is reported as memutils.ErrAllocationUnderflow and the counters are
// left exactly as they were.
func (c *Coordinator) ReturnAllocation(p partition.ID, handle Handle, size int) error {
	c.logger.Debug("Coordinator::ReturnAllocation", slog.String("Partition", p.String()), slog.Uint64("Handle", uint64(handle)), slog.Int("Size", size))

	err := c.checkReady(p, size)
	if err != nil {
		return err
	}

	if handle == NoHandle {
		return errors.WithStack(ErrInvalidHandle)
	}

	index := p.AsIndex()
	request := int64(size)

	for {
		current := atomic.LoadInt64(&c.allocated[index])
		if current < request {
			c.logger.Error("partition allocation underflow",
				slog.String("Partition", p.String()),
				slog.Uint64("Handle", uint64(handle)),
				slog.Int("Returned", size),
				slog.Int64("Allocated", current))
			return errors.Wrapf(memutils.ErrAllocationUnderflow,
				"partition %s returned %d bytes but only %d are allocated", p, size, current)
		}

		if atomic.CompareAndSwapInt64(&c.allocated[index], current, current-request) {
			break
		}
	}

	for {
		current := atomic.LoadInt64(&c.totalAllocated)
		if current < request {
			// Restore the partition counter to its prior value
			atomic.AddInt64(&c.allocated[index], request)
			c.logger.Error("system-wide allocation underflow",
				slog.String("Partition", p.String()),
				slog.Int("Returned", size),
				slog.Int64("TotalAllocated", current))
			return errors.Wrapf(memutils.ErrAllocationUnderflow,
				"returned %d bytes but only %d are allocated system-wide", size, current)
		}

		if atomic.CompareAndSwapInt64(&c.totalAllocated, current, current-request) {
			break
		}
	}

	for {
		current := atomic.LoadInt64(&c.count[index])
		if current == 0 || atomic.CompareAndSwapInt64(&c.count[index], current, current-1) {
			break
		}
	}

	return nil
}

// CanAllocate reports whether a request of size bytes for p would currently pass both budget
// checks. The answer is advisory: a concurrent caller may consume the headroom first.
func (c *Coordinator) CanAllocate(p partition.ID, size int) bool {
	if c.checkReady(p, size) != nil {
		return false
	}

	index := p.AsIndex()
	request := int64(size)
	if request > atomic.LoadInt64(&c.budgets[index])-atomic.LoadInt64(&c.allocated[index]) {
		return false
	}

	return request <= atomic.LoadInt64(&c.totalBudget)-atomic.LoadInt64(&c.totalAllocated)
}

func (c *Coordinator) load(counters *[partition.MaxPartitions]int64, p partition.ID) int {
	if !p.Valid() {
		return 0
	}
	return int(atomic.LoadInt64(&counters[p.AsIndex()]))
}

// Allocated returns the number of bytes partition p currently has allocated
func (c *Coordinator) Allocated(p partition.ID) int { return c.load(&c.allocated, p) }

// Budget returns the budget of partition p, or 0 for an unknown partition
func (c *Coordinator) Budget(p partition.ID) int { return c.load(&c.budgets, p) }

// Peak returns the largest number of bytes partition p has had allocated at once
func (c *Coordinator) Peak(p partition.ID) int { return c.load(&c.peak, p) }

// AllocationCount returns the number of live registrations for partition p
func (c *Coordinator) AllocationCount(p partition.ID) int { return c.load(&c.count, p) }

// Available returns the partition headroom, which may be larger than what the total budget
// currently allows
func (c *Coordinator) Available(p partition.ID) int {
	available := c.Budget(p) - c.Allocated(p)
	if available < 0 {
		return 0
	}
	return available
}

func (c *Coordinator) TotalAllocated() int { return int(atomic.LoadInt64(&c.totalAllocated)) }

func (c *Coordinator) TotalBudget() int { return int(atomic.LoadInt64(&c.totalBudget)) }

func (c *Coordinator) TotalPeak() int { return int(atomic.LoadInt64(&c.totalPeak)) }

// TotalAvailable returns the remaining system-wide headroom
func (c *Coordinator) TotalAvailable() int {
	available := c.TotalBudget() - c.TotalAllocated()
	if available < 0 {
		return 0
	}
	return available
}

// Validate checks the budget invariants. The sum of partition allocations only matches the
// total when no registration or return is in flight, so Validate should be called at a
// quiescent point.
func (c *Coordinator) Validate() error {
	if !c.IsInitialized() {
		return nil
	}

	var sum int64
	for i := 0; i < partition.MaxPartitions; i++ {
		allocated := atomic.LoadInt64(&c.allocated[i])
		budget := atomic.LoadInt64(&c.budgets[i])

		if allocated < 0 {
			return errors.Wrapf(memutils.ErrIntegrity, "partition %s allocation is negative (%d)", partition.ID(i), allocated)
		}
		if allocated > budget {
			return errors.Wrapf(memutils.ErrIntegrity, "partition %s has %d bytes allocated over a budget of %d", partition.ID(i), allocated, budget)
		}

		sum += allocated
	}

	total := atomic.LoadInt64(&c.totalAllocated)
	totalBudget := atomic.LoadInt64(&c.totalBudget)
	if total > totalBudget {
		return errors.Wrapf(memutils.ErrIntegrity, "%d bytes allocated system-wide over a budget of %d", total, totalBudget)
	}
	if sum != total {
		return errors.Wrapf(memutils.ErrIntegrity, "partition allocations sum to %d but the total is %d", sum, total)
	}

	return nil
}

// Statistics returns the accounting for one partition
func (c *Coordinator) Statistics(p partition.ID) memutils.Statistics {
	return memutils.Statistics{
		AllocationCount: c.AllocationCount(p),
		AllocationBytes: c.Allocated(p),
		BudgetBytes:     c.Budget(p),
		PeakBytes:       c.Peak(p),
	}
}

// Snapshot captures the accounting of every partition and the whole system. Individual values
// are read atomically but the snapshot as a whole is not taken at a single instant.
func (c *Coordinator) Snapshot() Snapshot {
	var snapshot Snapshot
	for i := 0; i < partition.MaxPartitions; i++ {
		snapshot.Partitions[i] = c.Statistics(partition.ID(i))
		snapshot.Combined.AddStatistics(&snapshot.Partitions[i])
	}

	snapshot.Total.AllocationCount = snapshot.Combined.AllocationCount

	snapshot.Total.AllocationBytes = c.TotalAllocated()
	snapshot.Total.BudgetBytes = c.TotalBudget()
	snapshot.Total.PeakBytes = c.TotalPeak()

	return snapshot
}

// Snapshot is a point-in-time copy of a Coordinator's counters
type Snapshot struct {
	Partitions [partition.MaxPartitions]memutils.Statistics
	// Combined sums the partitions. Its budget is what the partitions were promised, which may
	// exceed what Total allows them to use at once.
	Combined memutils.Statistics
	Total    memutils.Statistics
}
