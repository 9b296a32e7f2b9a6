package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/wrtgo/foundation/budget"
	"github.com/wrtgo/foundation/config"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
	"github.com/wrtgo/foundation/verification"
)

func writeTable(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "budgets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	table, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, config.PresetEmbedded, table.Preset)
	require.Equal(t, config.Embedded().Partitions, table.Partitions)
	require.Equal(t, table.Sum(), table.Total)

	level, err := table.Level()
	require.NoError(t, err)
	require.Equal(t, verification.LevelStandard, level)
}

func TestLoadFromFile(t *testing.T) {
	path := writeTable(t, `
total: 8192
verification_level: full
partitions:
  - partition: Foundation
    budget: 1024
  - partition: wrt-runtime
    budget: 2048
`)

	table, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 8192, table.Total)
	require.Equal(t, []config.PartitionBudget{
		{Partition: "Foundation", Budget: 1024},
		{Partition: "wrt-runtime", Budget: 2048},
	}, table.Partitions)

	level, err := table.Level()
	require.NoError(t, err)
	require.Equal(t, verification.LevelFull, level)

	entries, err := table.Entries()
	require.NoError(t, err)
	require.Equal(t, []budget.Entry{
		{Partition: partition.Foundation, Budget: 1024},
		{Partition: partition.Runtime, Budget: 2048},
	}, entries)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("WRT_TOTAL", "3000")
	t.Setenv("WRT_PRESET", "ultra-embedded")

	path := writeTable(t, `
partitions:
  - partition: Decoder
    budget: 2500
`)

	table, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 3000, table.Total)

	t.Setenv("WRT_TOTAL", "2000")
	_, err = config.Load(path)
	require.True(t, errors.Is(err, memutils.ErrConfiguration))

	t.Setenv("WRT_TOTAL", "0")
	table, err = config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.PresetUltraEmbedded, table.Preset)
	require.Equal(t, config.UltraEmbedded().Total, table.Total)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = config.Load(writeTable(t, "preset: mainframe\n"))
	require.True(t, errors.Is(err, memutils.ErrConfiguration))
}

func TestValidate(t *testing.T) {
	testCases := map[string]struct {
		Table config.BudgetTable
		Valid bool
	}{
		"Valid": {
			Table: config.BudgetTable{Total: 100, Partitions: []config.PartitionBudget{{Partition: "Host", Budget: 100}}},
			Valid: true,
		},
		"Empty": {
			Table: config.BudgetTable{Total: 100},
			Valid: true,
		},
		"NoTotal": {
			Table: config.BudgetTable{Partitions: []config.PartitionBudget{{Partition: "Host", Budget: 1}}},
		},
		"Oversubscribed": {
			Table: config.BudgetTable{Total: 100, Partitions: []config.PartitionBudget{
				{Partition: "Host", Budget: 60},
				{Partition: "Math", Budget: 41},
			}},
		},
		"Duplicate": {
			Table: config.BudgetTable{Total: 100, Partitions: []config.PartitionBudget{
				{Partition: "Host", Budget: 10},
				{Partition: "wrt-host", Budget: 10},
			}},
		},
		"UnknownPartition": {
			Table: config.BudgetTable{Total: 100, Partitions: []config.PartitionBudget{{Partition: "gpu", Budget: 10}}},
		},
		"NegativeBudget": {
			Table: config.BudgetTable{Total: 100, Partitions: []config.PartitionBudget{{Partition: "Host", Budget: -1}}},
		},
		"SumOverflowsTotal": {
			Table: config.BudgetTable{Total: math.MaxInt, Partitions: []config.PartitionBudget{
				{Partition: "Foundation", Budget: 1},
				{Partition: "Runtime", Budget: math.MaxInt},
			}},
		},
		"MaximumTotal": {
			Table: config.BudgetTable{Total: math.MaxInt, Partitions: []config.PartitionBudget{
				{Partition: "Foundation", Budget: 1},
				{Partition: "Runtime", Budget: math.MaxInt - 1},
			}},
			Valid: true,
		},
		"UnknownLevel": {
			Table: config.BudgetTable{Total: 100, VerificationLevel: "paranoid"},
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			err := testCase.Table.Validate()
			if testCase.Valid {
				require.NoError(t, err)
				return
			}

			require.True(t, errors.Is(err, memutils.ErrConfiguration))
		})
	}
}

func TestSumSaturates(t *testing.T) {
	table := config.BudgetTable{Partitions: []config.PartitionBudget{
		{Partition: "Host", Budget: math.MaxInt},
		{Partition: "Math", Budget: math.MaxInt},
	}}
	require.Equal(t, math.MaxInt, table.Sum())

	table.Total = table.Sum()
	require.True(t, errors.Is(table.Validate(), memutils.ErrConfiguration))
}

func TestPresets(t *testing.T) {
	ultra := config.UltraEmbedded()
	embedded := config.Embedded()
	desktop := config.Desktop()

	for _, table := range []*config.BudgetTable{ultra, embedded, desktop} {
		require.NoError(t, table.Validate())
	}

	require.Less(t, ultra.Total, embedded.Total)
	require.Less(t, embedded.Total, desktop.Total)
	require.Equal(t, 7952*config.KiB, embedded.Total)

	named, err := config.Preset("Desktop")
	require.NoError(t, err)
	require.Equal(t, desktop, named)

	_, err = config.Preset("mainframe")
	require.Error(t, err)
}

func TestApply(t *testing.T) {
	coordinator := budget.NewCoordinator(nil)
	require.NoError(t, config.Embedded().Apply(coordinator))

	require.True(t, coordinator.IsInitialized())
	require.Equal(t, 2*config.MiB, coordinator.Budget(partition.Runtime))
	require.Equal(t, 0, coordinator.Budget(partition.WASI))
	require.Equal(t, config.Embedded().Total, coordinator.TotalBudget())

	err := config.Desktop().Apply(coordinator)
	require.True(t, errors.Is(err, memutils.ErrAlreadyInitialized))

	fresh := budget.NewCoordinator(nil)
	bad := &config.BudgetTable{Total: 10, Partitions: []config.PartitionBudget{{Partition: "Host", Budget: 11}}}
	require.True(t, errors.Is(bad.Apply(fresh), memutils.ErrConfiguration))
	require.False(t, fresh.IsInitialized())
}

func TestNewContextUsesTableLevel(t *testing.T) {
	table := &config.BudgetTable{
		Total:             4096,
		VerificationLevel: "full",
		Partitions:        []config.PartitionBudget{{Partition: "wrt-runtime", Budget: 1024}},
	}

	coordinator := budget.NewCoordinator(nil)
	require.NoError(t, table.Apply(coordinator))

	context, err := table.NewContext(coordinator, nil)
	require.NoError(t, err)
	require.Equal(t, verification.LevelFull, context.VerificationLevel())

	_, err = context.RegisterDynamic(partition.Runtime, 1024)
	require.NoError(t, err)

	p, err := context.CreateProvider(partition.Runtime, 512)
	require.NoError(t, err)
	require.Equal(t, verification.LevelFull, p.VerificationLevel())
	require.Equal(t, 512, coordinator.Allocated(partition.Runtime))
	require.NoError(t, p.Release())

	table.VerificationLevel = "paranoid"
	_, err = table.NewContext(coordinator, nil)
	require.True(t, errors.Is(err, memutils.ErrConfiguration))
}

func TestSaveThenLoad(t *testing.T) {
	table := config.Desktop()
	path := filepath.Join(t.TempDir(), "desktop.yaml")
	require.NoError(t, table.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, table, loaded)
}
