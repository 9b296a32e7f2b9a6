//go:build debug_mem_utils

package provider

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/verification"
)

func TestCarverDetectsOverrun(t *testing.T) {
	arena, err := NewArena(256, verification.LevelStandard)
	require.NoError(t, err)
	carver := NewCarver(arena, false)

	region, err := carver.Carve(16, 8)
	require.NoError(t, err)
	require.NoError(t, carver.CheckCorruption())

	// Write past the end of the region through the parent
	require.NoError(t, arena.WriteData(region.Offset()+16, []byte{0}))
	require.True(t, errors.Is(carver.CheckCorruption(), memutils.ErrIntegrity))
}
