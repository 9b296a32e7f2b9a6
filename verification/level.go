package verification

import (
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// Level is the strength of integrity checking applied to memory operations. Levels are
// totally ordered: a higher level always performs at least the checks of a lower one.
type Level uint8

const (
	// LevelOff performs bounds checks only
	LevelOff Level = iota
	// LevelSampling verifies important operations and a periodic sample of the rest
	LevelSampling
	// LevelStandard verifies operations of medium importance or higher
	LevelStandard
	// LevelFull checksums every write and verifies every access
	LevelFull
	// LevelRedundant behaves like LevelFull but recomputes every checksum twice
	LevelRedundant
)

// DefaultLevel is the level used when none is configured
const DefaultLevel = LevelStandard

const (
	// ImportanceLow is the importance of routine reads
	ImportanceLow uint8 = 64
	// ImportanceMedium is the importance used when none is specified
	ImportanceMedium uint8 = 128
	// ImportanceHigh marks accesses that should be verified under sampling
	ImportanceHigh uint8 = 200
	// ImportanceCritical is used for creation-time and integrity checks
	ImportanceCritical uint8 = 255

	// samplingPeriod is the number of low-importance operations between sampled verifications
	samplingPeriod = 16
)

var levelMapping = map[Level]string{
	LevelOff:       "Off",
	LevelSampling:  "Sampling",
	LevelStandard:  "Standard",
	LevelFull:      "Full",
	LevelRedundant: "Redundant",
}

func (l Level) String() string {
	return levelMapping[l]
}

// ParseLevel converts a level name, case-insensitively, into a Level
func ParseLevel(name string) (Level, error) {
	for level, levelName := range levelMapping {
		if strings.EqualFold(levelName, name) {
			return level, nil
		}
	}

	return LevelOff, errors.Newf("unknown verification level %q", name)
}

var sampleCounter atomic.Uint64

// ShouldVerify reports whether an operation of the provided importance (0-255) should be
// verified at this level.
func (l Level) ShouldVerify(importance uint8) bool {
	switch l {
	case LevelOff:
		return false
	case LevelSampling:
		if importance >= ImportanceHigh {
			return true
		}
		return sampleCounter.Add(1)%samplingPeriod == 0
	case LevelStandard:
		return importance >= ImportanceMedium
	default:
		return true
	}
}

// ShouldVerifyRedundant reports whether checksums should be recomputed a second time
func (l Level) ShouldVerifyRedundant() bool {
	return l >= LevelRedundant
}

// ChecksumsWrites reports whether writes at this level keep checksums up to date
func (l Level) ChecksumsWrites() bool {
	return l >= LevelFull
}
