package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that override a loaded table, e.g. WRT_TOTAL
const EnvPrefix = "WRT"

// Load reads a budget table from the file at path, or only from defaults and the environment
// if path is empty. A table that lists no partitions takes them from its preset, which
// defaults to "embedded"; a table without a total budget gets the sum of its partitions.
// The result has been validated.
func Load(path string) (*BudgetTable, error) {
	v := viper.New()

	v.SetDefault("preset", PresetEmbedded)
	v.SetDefault("total", 0)
	v.SetDefault("verification_level", "standard")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read budget table %s", path)
		}
	}

	var table BudgetTable
	if err := v.Unmarshal(&table); err != nil {
		return nil, errors.Wrap(err, "failed to decode budget table")
	}

	if len(table.Partitions) == 0 {
		preset, err := Preset(table.Preset)
		if err != nil {
			return nil, configurationError(err)
		}
		table.Partitions = preset.Partitions
	}

	if table.Total == 0 {
		table.Total = table.Sum()
	}

	err := table.Validate()
	if err != nil {
		return nil, err
	}

	return &table, nil
}
