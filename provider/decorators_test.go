package provider

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/verification"
)

type countingGrant struct {
	returns int
	err     error
}

func (g *countingGrant) Return() error {
	g.returns++
	return g.err
}

func TestBudgetedReturnsGrantOnLastRelease(t *testing.T) {
	arena, err := NewArena(64, verification.LevelStandard)
	require.NoError(t, err)

	grant := &countingGrant{}
	budgeted := NewBudgeted(arena, grant)
	require.Equal(t, 1, budgeted.References())

	shared, err := budgeted.Share()
	require.NoError(t, err)
	require.Equal(t, 2, shared.References())

	require.NoError(t, budgeted.Release())
	require.Equal(t, 0, grant.returns)
	require.NoError(t, budgeted.WriteData(0, []byte{1}))

	require.NoError(t, shared.Release())
	require.Equal(t, 1, grant.returns)
	require.True(t, errors.Is(budgeted.WriteData(0, []byte{1}), memutils.ErrReleased))

	require.NoError(t, budgeted.Release())
	require.Equal(t, 1, grant.returns)

	_, err = budgeted.Share()
	require.True(t, errors.Is(err, memutils.ErrReleased))
}

func TestBudgetedReportsGrantFailure(t *testing.T) {
	arena, err := NewArena(64, verification.LevelStandard)
	require.NoError(t, err)

	grant := &countingGrant{err: memutils.ErrAllocationUnderflow}
	budgeted := NewBudgeted(arena, grant)

	require.True(t, errors.Is(budgeted.Release(), memutils.ErrAllocationUnderflow))
	require.Equal(t, 0, arena.AllocatedMemory())
}

func TestGuardedChecksEveryAccess(t *testing.T) {
	arena, err := NewArena(64, verification.LevelStandard)
	require.NoError(t, err)

	var seen []AccessKind
	guarded := NewGuarded(arena, AccessCheckerFunc(func(kind AccessKind, offset, length int) error {
		seen = append(seen, kind)
		if kind == AccessWrite && offset >= 32 {
			return errors.Wrapf(memutils.ErrCapabilityDenied, "%s of %d bytes at %d", kind, length, offset)
		}
		return nil
	}))

	require.NoError(t, guarded.WriteData(0, []byte("ok")))
	require.True(t, errors.Is(guarded.WriteData(40, []byte("no")), memutils.ErrCapabilityDenied))
	_, err = guarded.BorrowSliceMut(32, 1)
	require.True(t, errors.Is(err, memutils.ErrCapabilityDenied))
	require.True(t, errors.Is(guarded.CopyWithin(0, 40, 2), memutils.ErrCapabilityDenied))

	out := make([]byte, 2)
	require.NoError(t, guarded.ReadData(0, out))
	require.Equal(t, "ok", string(out))
	_, err = guarded.BorrowSlice(40, 2)
	require.NoError(t, err)

	require.Equal(t, []AccessKind{AccessWrite, AccessWrite, AccessWrite, AccessRead, AccessWrite, AccessRead, AccessRead}, seen)
	require.Equal(t, "Write", AccessWrite.String())
}

func TestRegionTranslatesOffsets(t *testing.T) {
	arena, err := NewArena(128, verification.LevelFull)
	require.NoError(t, err)

	region, err := NewRegion(arena, 32, 16)
	require.NoError(t, err)
	require.Equal(t, 16, region.Capacity())
	require.Equal(t, 16, region.Size())
	require.Equal(t, 32, region.Offset())

	require.NoError(t, region.WriteData(0, []byte("region")))
	out := make([]byte, 6)
	require.NoError(t, arena.ReadData(32, out))
	require.Equal(t, "region", string(out))

	require.True(t, errors.Is(region.WriteData(12, []byte("spill")), memutils.ErrOutOfBounds))
	require.True(t, errors.Is(region.CopyWithin(0, 14, 4), memutils.ErrOutOfBounds))
	require.NoError(t, region.CopyWithin(0, 8, 6))
	require.NoError(t, region.VerifyIntegrity())
	require.NoError(t, region.VerifyAccess(0, 16, verification.ImportanceLow))

	region.SetVerificationLevel(verification.LevelStandard)
	require.Equal(t, verification.LevelStandard, arena.VerificationLevel())

	require.NoError(t, region.Release())
	require.True(t, errors.Is(region.WriteData(0, []byte{1}), memutils.ErrReleased))
	require.NoError(t, arena.WriteData(32, []byte{1}))

	_, err = NewRegion(arena, 120, 16)
	require.True(t, errors.Is(err, memutils.ErrOutOfBounds))
}

func TestRegionGrowsDynamicParent(t *testing.T) {
	arena, err := NewDynamicArena(256, verification.LevelStandard)
	require.NoError(t, err)

	region, err := NewRegion(arena, 100, 50)
	require.NoError(t, err)
	require.Equal(t, 150, arena.Size())
	require.NoError(t, region.WriteData(49, []byte{7}))
}

func TestCarverStack(t *testing.T) {
	arena, err := NewArena(256, verification.LevelStandard)
	require.NoError(t, err)
	carver := NewCarver(arena, true)

	first, err := carver.Carve(10, 1)
	require.NoError(t, err)
	require.Equal(t, 0, first.Offset())

	second, err := carver.Carve(16, 16)
	require.NoError(t, err)
	require.True(t, memutils.IsAligned(second.Offset(), 16))
	require.GreaterOrEqual(t, second.Offset(), 10+memutils.DebugMargin)
	require.Equal(t, 2, carver.RegionCount())
	require.NoError(t, carver.Validate())

	_, err = carver.Carve(8, 3)
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))

	_, err = carver.Carve(1000, 1)
	require.True(t, errors.Is(err, memutils.ErrCapacityExceeded))

	require.Error(t, carver.Pop(first))
	require.NoError(t, carver.Pop(second))
	require.Equal(t, 10+memutils.DebugMargin, carver.Used())
	_, err = second.BorrowSlice(0, 1)
	require.True(t, errors.Is(err, memutils.ErrReleased))
	require.NoError(t, carver.Pop(first))
	require.Equal(t, 0, carver.Used())
	require.Equal(t, 256, carver.Remaining())
	require.Error(t, carver.Pop(first))

	require.NoError(t, carver.CheckCorruption())
}

func TestCarvedRegionsAreDisjoint(t *testing.T) {
	arena, err := NewArena(512, verification.LevelFull)
	require.NoError(t, err)
	carver := NewCarver(arena, false)

	var regions []*Region
	for i := 0; i < 4; i++ {
		region, err := carver.Carve(32, 8)
		require.NoError(t, err)
		regions = append(regions, region)
	}

	for i, region := range regions {
		payload := make([]byte, 32)
		for j := range payload {
			payload[j] = byte(i + 1)
		}
		require.NoError(t, region.WriteData(0, payload))
	}

	for i, region := range regions {
		out := make([]byte, 32)
		require.NoError(t, region.ReadData(0, out))
		for _, b := range out {
			require.Equal(t, byte(i+1), b)
		}
	}

	require.NoError(t, carver.CheckCorruption())
	carver.Reset()
	require.Equal(t, 0, carver.RegionCount())
}

func TestAtomicViews(t *testing.T) {
	arena, err := NewArena(64, verification.LevelStandard)
	require.NoError(t, err)

	_, err = AtomicUint32At(arena, 1)
	require.True(t, errors.Is(err, memutils.ErrMisaligned))
	_, err = AtomicUint64At(arena, 4)
	require.True(t, errors.Is(err, memutils.ErrMisaligned))
	_, err = AtomicUint64At(arena, 60)
	require.True(t, errors.Is(err, memutils.ErrOutOfBounds))

	counter, err := AtomicUint64At(arena, 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				counter.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, uint64(8000), counter.Load())

	flag, err := AtomicUint32At(arena, 4)
	require.NoError(t, err)
	require.True(t, flag.CompareAndSwap(0, 5))
	require.False(t, flag.CompareAndSwap(0, 6))
	require.Equal(t, uint32(5), flag.Swap(9))
	flag.Store(11)
	require.Equal(t, uint32(11), flag.Load())
}
