package memutils_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/wrtgo/foundation/memutils"
)

func TestCheckPow2(t *testing.T) {
	require.NoError(t, memutils.CheckPow2(1, "one"))
	require.NoError(t, memutils.CheckPow2(uint(64), "sixty-four"))

	err := memutils.CheckPow2(12, "twelve")
	require.Error(t, err)
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))

	err = memutils.CheckPow2(0, "zero")
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))
}

func TestAlign(t *testing.T) {
	require.Equal(t, 16, memutils.AlignUp(9, 8))
	require.Equal(t, 8, memutils.AlignUp(8, 8))
	require.Equal(t, 8, memutils.AlignDown(15, 8))
	require.True(t, memutils.IsAligned(uintptr(64), uintptr(8)))
	require.False(t, memutils.IsAligned(12, 8))
}

func TestCheckBounds(t *testing.T) {
	require.NoError(t, memutils.CheckBounds(0, 10, 10))
	require.NoError(t, memutils.CheckBounds(10, 0, 10))

	testCases := map[string]struct {
		Offset int
		Length int
	}{
		"PastEnd":         {Offset: 5, Length: 6},
		"OffsetPastEnd":   {Offset: 11, Length: 0},
		"NegativeOffset":  {Offset: -1, Length: 2},
		"NegativeLength":  {Offset: 2, Length: -1},
		"OverflowingSize": {Offset: 5, Length: int(^uint(0) >> 1)},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			err := memutils.CheckBounds(testCase.Offset, testCase.Length, 10)
			require.Error(t, err)
			require.True(t, errors.Is(err, memutils.ErrOutOfBounds))

			var boundsErr *memutils.BoundsError
			require.True(t, errors.As(err, &boundsErr))
			require.Equal(t, 10, boundsErr.Size)
		})
	}
}

func TestStatistics(t *testing.T) {
	stats := memutils.Statistics{AllocationCount: 2, AllocationBytes: 300, BudgetBytes: 400, PeakBytes: 350}
	require.Equal(t, 100, stats.AvailableBytes())
	require.InDelta(t, 0.75, stats.Utilization(), 0.0001)

	other := memutils.Statistics{AllocationCount: 1, AllocationBytes: 100, BudgetBytes: 100, PeakBytes: 100}
	stats.AddStatistics(&other)
	require.Equal(t, memutils.Statistics{AllocationCount: 3, AllocationBytes: 400, BudgetBytes: 500, PeakBytes: 450}, stats)

	require.Equal(t, 0.0, (&memutils.Statistics{}).Utilization())
}
