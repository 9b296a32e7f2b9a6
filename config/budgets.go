// Package config loads and validates the partition budget table that a budget.Coordinator is
// initialized with once at startup.
package config

import (
	"math"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/budget"
	"github.com/wrtgo/foundation/capability"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/partition"
	"github.com/wrtgo/foundation/verification"
	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"
)

// PartitionBudget is one row of a BudgetTable. Partition accepts either form of the partition
// name, e.g. "Runtime" or "wrt-runtime".
type PartitionBudget struct {
	Partition string `mapstructure:"partition" yaml:"partition"`
	Budget    int    `mapstructure:"budget" yaml:"budget"`
}

// BudgetTable is the persisted form of a coordinator configuration
type BudgetTable struct {
	// Preset names the standard table the partitions were taken from, if any
	Preset string `mapstructure:"preset" yaml:"preset,omitempty"`
	// Total is the system-wide budget in bytes
	Total int `mapstructure:"total" yaml:"total"`
	// VerificationLevel is the level capabilities are issued at, e.g. "standard" or "full"
	VerificationLevel string            `mapstructure:"verification_level" yaml:"verification_level"`
	Partitions        []PartitionBudget `mapstructure:"partitions" yaml:"partitions"`
}

func configurationError(err error) error {
	return errors.Mark(err, memutils.ErrConfiguration)
}

// Sum returns the sum of the partition budgets, saturating at math.MaxInt
func (t *BudgetTable) Sum() int {
	sum := 0
	for _, row := range t.Partitions {
		if row.Budget > 0 && sum > math.MaxInt-row.Budget {
			return math.MaxInt
		}
		sum += row.Budget
	}
	return sum
}

// Validate checks that every partition name resolves, that no partition appears twice, that
// no budget is negative and that the partitions fit in Total. Every error it returns matches
// memutils.ErrConfiguration.
func (t *BudgetTable) Validate() error {
	if t.Total <= 0 {
		return configurationError(errors.Newf("total budget must be positive, got %d", t.Total))
	}

	_, err := t.Level()
	if err != nil {
		return configurationError(err)
	}

	var seen [partition.MaxPartitions]bool
	sum := 0
	for _, row := range t.Partitions {
		id, err := partition.Parse(row.Partition)
		if err != nil {
			return configurationError(err)
		}

		if seen[id.AsIndex()] {
			return configurationError(errors.Newf("partition %s is listed more than once", id))
		}
		seen[id.AsIndex()] = true

		if row.Budget < 0 {
			return configurationError(errors.Wrapf(memutils.ErrInvalidSize, "partition %s has a negative budget of %d", id, row.Budget))
		}

		if row.Budget > t.Total-sum {
			return configurationError(errors.Newf("partition budgets exceed the total budget of %d bytes", t.Total))
		}
		sum += row.Budget
	}

	return nil
}

// Level parses VerificationLevel. An empty level is the default level.
func (t *BudgetTable) Level() (verification.Level, error) {
	if t.VerificationLevel == "" {
		return verification.DefaultLevel, nil
	}
	return verification.ParseLevel(t.VerificationLevel)
}

// Entries converts the table into coordinator entries
func (t *BudgetTable) Entries() ([]budget.Entry, error) {
	entries := make([]budget.Entry, 0, len(t.Partitions))
	for _, row := range t.Partitions {
		id, err := partition.Parse(row.Partition)
		if err != nil {
			return nil, configurationError(err)
		}

		entries = append(entries, budget.Entry{Partition: id, Budget: row.Budget})
	}

	return entries, nil
}

// Apply validates the table and initializes coordinator with it
func (t *BudgetTable) Apply(coordinator *budget.Coordinator) error {
	err := t.Validate()
	if err != nil {
		return err
	}

	entries, err := t.Entries()
	if err != nil {
		return err
	}

	return coordinator.Initialize(entries, t.Total)
}

// NewContext creates a capability context that spends against authority and issues
// capabilities at the table's verification level
func (t *BudgetTable) NewContext(authority capability.Authority, logger *slog.Logger) (*capability.Context, error) {
	level, err := t.Level()
	if err != nil {
		return nil, configurationError(err)
	}

	return capability.NewContextBuilder(authority).
		WithLogger(logger).
		WithVerificationLevel(level).
		Build(), nil
}

// Marshal encodes the table as YAML in the layout Load reads
func (t *BudgetTable) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode budget table")
	}
	return data, nil
}

// Save writes the table as YAML to path
func (t *BudgetTable) Save(path string) error {
	data, err := t.Marshal()
	if err != nil {
		return err
	}

	return errors.Wrapf(os.WriteFile(path, data, 0o644), "failed to write budget table to %s", path)
}
