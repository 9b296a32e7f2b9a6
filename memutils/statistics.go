package memutils

// Statistics summarizes the budget accounting of one partition, or of the whole system
// when several partitions are summed with AddStatistics.
type Statistics struct {
	AllocationCount int
	AllocationBytes int
	BudgetBytes     int
	PeakBytes       int
}

// AddStatistics sums other into s. Peaks are summed as well, which makes the result an upper
// bound on the combined peak rather than the observed combined peak.
func (s *Statistics) AddStatistics(other *Statistics) {
	s.AllocationCount += other.AllocationCount
	s.AllocationBytes += other.AllocationBytes
	s.BudgetBytes += other.BudgetBytes
	s.PeakBytes += other.PeakBytes
}

// AvailableBytes is the number of bytes that could still be allocated within the budget
func (s *Statistics) AvailableBytes() int {
	if s.AllocationBytes >= s.BudgetBytes {
		return 0
	}
	return s.BudgetBytes - s.AllocationBytes
}

// Utilization returns AllocationBytes / BudgetBytes in the range [0, 1]. An empty budget
// reports 0.
func (s *Statistics) Utilization() float64 {
	if s.BudgetBytes == 0 {
		return 0
	}
	return float64(s.AllocationBytes) / float64(s.BudgetBytes)
}

// ProviderStatistics is a snapshot of a memory provider's observers
type ProviderStatistics struct {
	Capacity          int
	Size              int
	AllocatedBytes    int
	PeakBytes         int
	AccessCount       int
	ChecksummedBlocks int
}
