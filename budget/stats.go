package budget

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
)

// BuildStatsString renders the coordinator's accounting as JSON. Partitions without a budget
// are only included when detailed is true.
func (c *Coordinator) BuildStatsString(detailed bool) string {
	snapshot := c.Snapshot()
	writer := jwriter.NewWriter()

	obj := writer.Object()
	obj.Name("Initialized").Bool(c.IsInitialized())

	total := obj.Name("Total").Object()
	printStatistics(&total, &snapshot.Total)
	total.End()

	combined := obj.Name("Combined").Object()
	printStatistics(&combined, &snapshot.Combined)
	combined.End()

	partitions := obj.Name("Partitions").Object()
	for i := 0; i < partition.MaxPartitions; i++ {
		stats := &snapshot.Partitions[i]
		if !detailed && stats.BudgetBytes == 0 && stats.AllocationBytes == 0 {
			continue
		}

		partitionObj := partitions.Name(partition.ID(i).String()).Object()
		printStatistics(&partitionObj, stats)
		partitionObj.End()
	}
	partitions.End()

	obj.End()

	return string(writer.Bytes())
}

func printStatistics(json *jwriter.ObjectState, stats *memutils.Statistics) {
	json.Name("Allocations").Int(stats.AllocationCount)
	json.Name("AllocatedBytes").Int(stats.AllocationBytes)
	json.Name("BudgetBytes").Int(stats.BudgetBytes)
	json.Name("PeakBytes").Int(stats.PeakBytes)
	json.Name("AvailableBytes").Int(stats.AvailableBytes())
}
