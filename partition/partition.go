// Package partition names the logical subsystems that share a memory budget.
package partition

import (
	"iter"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
)

// ID identifies a partition. IDs are dense, totally ordered and fixed at design time.
type ID uint8

const (
	Foundation ID = iota
	Runtime
	Component
	Decoder
	Host
	Platform
	Instructions
	Format
	Sync
	Debug
	Logging
	Intercept
	Math
	Error
	WASI
	Integration

	// Count is the number of defined partitions
	Count int = iota
)

// MaxPartitions is the largest number of partitions a coordinator will track
const MaxPartitions = 16

var names = [...]string{
	Foundation:   "Foundation",
	Runtime:      "Runtime",
	Component:    "Component",
	Decoder:      "Decoder",
	Host:         "Host",
	Platform:     "Platform",
	Instructions: "Instructions",
	Format:       "Format",
	Sync:         "Sync",
	Debug:        "Debug",
	Logging:      "Logging",
	Intercept:    "Intercept",
	Math:         "Math",
	Error:        "Error",
	WASI:         "WASI",
	Integration:  "Integration",
}

// crateNames are the names the partitions carry in the runtime's build graph
var crateNames = [...]string{
	Foundation:   "wrt-foundation",
	Runtime:      "wrt-runtime",
	Component:    "wrt-component",
	Decoder:      "wrt-decoder",
	Host:         "wrt-host",
	Platform:     "wrt-platform",
	Instructions: "wrt-instructions",
	Format:       "wrt-format",
	Sync:         "wrt-sync",
	Debug:        "wrt-debug",
	Logging:      "wrt-logging",
	Intercept:    "wrt-intercept",
	Math:         "wrt-math",
	Error:        "wrt-error",
	WASI:         "wrt-wasi",
	Integration:  "wrt",
}

// AsIndex returns the dense index of the partition, in [0, MaxPartitions)
func (id ID) AsIndex() int {
	return int(id)
}

// Valid reports whether the id is within MaxPartitions
func (id ID) Valid() bool {
	return int(id) < MaxPartitions
}

// CheckIndex returns an error matching memutils.ErrPartitionOutOfBounds if id is not Valid
func (id ID) CheckIndex() error {
	if !id.Valid() {
		return errors.Wrapf(memutils.ErrPartitionOutOfBounds, "partition index %d exceeds maximum of %d", int(id), MaxPartitions)
	}
	return nil
}

func (id ID) String() string {
	if int(id) < len(names) {
		return names[id]
	}
	return "Partition(" + strconv.Itoa(int(id)) + ")"
}

// CrateName returns the build-graph name of the partition, e.g. "wrt-runtime"
func (id ID) CrateName() string {
	if int(id) < len(crateNames) {
		return crateNames[id]
	}
	return id.String()
}

// Parse accepts either the partition name ("Runtime") or the crate name ("wrt-runtime"),
// case-insensitively
func Parse(name string) (ID, error) {
	for i := 0; i < Count; i++ {
		if strings.EqualFold(names[i], name) || strings.EqualFold(crateNames[i], name) {
			return ID(i), nil
		}
	}

	return 0, errors.Newf("unknown partition %q", name)
}

// All iterates every defined partition in index order
func All() iter.Seq[ID] {
	return func(yield func(ID) bool) {
		for i := 0; i < Count; i++ {
			if !yield(ID(i)) {
				return
			}
		}
	}
}
