package config

import (
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	KiB = 1024
	MiB = 1024 * KiB
)

// Names of the standard tables
const (
	PresetUltraEmbedded = "ultra-embedded"
	PresetEmbedded      = "embedded"
	PresetDesktop       = "desktop"
)

// Preset returns the standard table with the given name
func Preset(name string) (*BudgetTable, error) {
	switch strings.ToLower(name) {
	case PresetUltraEmbedded:
		return UltraEmbedded(), nil
	case PresetEmbedded:
		return Embedded(), nil
	case PresetDesktop:
		return Desktop(), nil
	}

	return nil, errors.Newf("unknown budget preset %q", name)
}

func preset(name string, rows []PartitionBudget) *BudgetTable {
	table := &BudgetTable{
		Preset:            name,
		VerificationLevel: "standard",
		Partitions:        rows,
	}
	table.Total = table.Sum()
	return table
}

// UltraEmbedded is the most conservative table, about 1.9 MiB in total. Partitions it leaves
// out get no budget.
func UltraEmbedded() *BudgetTable {
	table := preset(PresetUltraEmbedded, []PartitionBudget{
		{Partition: "wrt-error", Budget: 4 * KiB},
		{Partition: "wrt-foundation", Budget: 256 * KiB},
		{Partition: "wrt-sync", Budget: 16 * KiB},
		{Partition: "wrt-platform", Budget: 64 * KiB},
		{Partition: "wrt-format", Budget: 256 * KiB},
		{Partition: "wrt-decoder", Budget: 128 * KiB},
		{Partition: "wrt-instructions", Budget: 256 * KiB},
		{Partition: "wrt-runtime", Budget: 512 * KiB},
		{Partition: "wrt-component", Budget: 256 * KiB},
		{Partition: "wrt", Budget: 128 * KiB},
	})
	table.VerificationLevel = "full"
	return table
}

// Embedded is the table for embedded deployments, about 8 MiB in total
func Embedded() *BudgetTable {
	return preset(PresetEmbedded, []PartitionBudget{
		{Partition: "wrt-error", Budget: 16 * KiB},
		{Partition: "wrt-foundation", Budget: 512 * KiB},
		{Partition: "wrt-sync", Budget: 64 * KiB},
		{Partition: "wrt-platform", Budget: 256 * KiB},
		{Partition: "wrt-format", Budget: 1 * MiB},
		{Partition: "wrt-decoder", Budget: 512 * KiB},
		{Partition: "wrt-instructions", Budget: 768 * KiB},
		{Partition: "wrt-runtime", Budget: 2 * MiB},
		{Partition: "wrt-component", Budget: 1 * MiB},
		{Partition: "wrt-host", Budget: 512 * KiB},
		{Partition: "wrt-debug", Budget: 256 * KiB},
		{Partition: "wrt-logging", Budget: 128 * KiB},
		{Partition: "wrt-intercept", Budget: 256 * KiB},
		{Partition: "wrt-math", Budget: 64 * KiB},
		{Partition: "wrt", Budget: 512 * KiB},
	})
}

// Desktop is the table for desktop and server deployments, about 64 MiB in total
func Desktop() *BudgetTable {
	return preset(PresetDesktop, []PartitionBudget{
		{Partition: "wrt-error", Budget: 64 * KiB},
		{Partition: "wrt-foundation", Budget: 4 * MiB},
		{Partition: "wrt-sync", Budget: 256 * KiB},
		{Partition: "wrt-platform", Budget: 1 * MiB},
		{Partition: "wrt-format", Budget: 8 * MiB},
		{Partition: "wrt-decoder", Budget: 4 * MiB},
		{Partition: "wrt-instructions", Budget: 4 * MiB},
		{Partition: "wrt-runtime", Budget: 16 * MiB},
		{Partition: "wrt-component", Budget: 8 * MiB},
		{Partition: "wrt-host", Budget: 4 * MiB},
		{Partition: "wrt-debug", Budget: 4 * MiB},
		{Partition: "wrt-logging", Budget: 2 * MiB},
		{Partition: "wrt-intercept", Budget: 1 * MiB},
		{Partition: "wrt-math", Budget: 256 * KiB},
		{Partition: "wrt", Budget: 4 * MiB},
	})
}
