package provider

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/wrtgo/foundation/internal/pages"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/verification"
)

func TestArenaCreation(t *testing.T) {
	testCases := map[string]struct {
		Capacity int
		Valid    bool
	}{
		"Zero":     {Capacity: 0},
		"Negative": {Capacity: -16},
		"TooLarge": {Capacity: MaxArenaSize + 1},
		"Small":    {Capacity: 1, Valid: true},
		"Default":  {Capacity: DefaultCapacity, Valid: true},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			arena, err := NewArena(testCase.Capacity, verification.LevelStandard)
			if !testCase.Valid {
				require.True(t, errors.Is(err, memutils.ErrInvalidSize))
				return
			}

			require.NoError(t, err)
			require.Equal(t, testCase.Capacity, arena.Capacity())
			require.Equal(t, testCase.Capacity, arena.Size())
			require.Equal(t, testCase.Capacity, arena.AllocatedMemory())
			require.Equal(t, testCase.Capacity, arena.PeakMemory())
			require.False(t, arena.IsDynamic())
		})
	}
}

func TestArenaReadWrite(t *testing.T) {
	arena, err := NewArena(256, verification.LevelStandard)
	require.NoError(t, err)

	require.NoError(t, arena.WriteData(10, []byte("hello")))

	out := make([]byte, 5)
	require.NoError(t, arena.ReadData(10, out))
	require.Equal(t, "hello", string(out))

	view, err := arena.BorrowSlice(10, 5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(view))
	require.Equal(t, 5, cap(view))

	mut, err := arena.BorrowSliceMut(10, 1)
	require.NoError(t, err)
	mut[0] = 'j'
	require.NoError(t, arena.ReadData(10, out))
	require.Equal(t, "jello", string(out))

	require.NoError(t, arena.CopyWithin(10, 12, 5))
	out = make([]byte, 7)
	require.NoError(t, arena.ReadData(10, out))
	require.Equal(t, "jejello", string(out))

	require.Equal(t, 7, arena.AccessCount())
}

func TestArenaBounds(t *testing.T) {
	arena, err := NewArena(64, verification.LevelStandard)
	require.NoError(t, err)

	testCases := map[string]struct {
		Offset int
		Length int
	}{
		"PastEnd":         {Offset: 60, Length: 8},
		"StartPastEnd":    {Offset: 65, Length: 0},
		"NegativeOffset":  {Offset: -1, Length: 4},
		"NegativeLength":  {Offset: 0, Length: -4},
		"OverflowingSpan": {Offset: 8, Length: int(^uint(0) >> 1)},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := arena.BorrowSlice(testCase.Offset, testCase.Length)
			require.True(t, errors.Is(err, memutils.ErrOutOfBounds))

			_, err = arena.BorrowSliceMut(testCase.Offset, testCase.Length)
			require.True(t, errors.Is(err, memutils.ErrOutOfBounds))

			var bounds *memutils.BoundsError
			require.True(t, errors.As(err, &bounds))
			require.Equal(t, 64, bounds.Size)
		})
	}

	require.True(t, errors.Is(arena.WriteData(62, []byte{1, 2, 3}), memutils.ErrOutOfBounds))
	require.True(t, errors.Is(arena.ReadData(62, make([]byte, 3)), memutils.ErrOutOfBounds))
	require.True(t, errors.Is(arena.CopyWithin(0, 62, 3), memutils.ErrOutOfBounds))

	require.NoError(t, arena.WriteData(64, nil))
}

func TestArenaChecksumsAtFull(t *testing.T) {
	arena, err := NewArena(200, verification.LevelFull)
	require.NoError(t, err)
	require.Equal(t, blockCount(200), arena.Statistics().ChecksummedBlocks)

	require.NoError(t, arena.WriteData(70, []byte{1, 2, 3, 4}))
	require.NoError(t, arena.VerifyIntegrity())
	require.NoError(t, arena.VerifyAccess(70, 4, verification.ImportanceLow))

	arena.data[71] ^= 0xFF

	require.True(t, errors.Is(arena.VerifyIntegrity(), memutils.ErrIntegrity))
	require.True(t, errors.Is(arena.VerifyAccess(64, 8, verification.ImportanceLow), memutils.ErrIntegrity))
	require.True(t, errors.Is(arena.ReadData(70, make([]byte, 2)), memutils.ErrIntegrity))

	// Blocks outside the corrupted one still verify
	require.NoError(t, arena.VerifyAccess(0, 64, verification.ImportanceLow))
	require.NoError(t, arena.ReadData(130, make([]byte, 10)))
}

func TestArenaRedundantVerification(t *testing.T) {
	arena, err := NewArena(128, verification.LevelRedundant)
	require.NoError(t, err)

	require.NoError(t, arena.WriteData(0, []byte("redundant")))
	require.NoError(t, arena.VerifyIntegrity())

	arena.data[3] = 'X'
	require.True(t, errors.Is(arena.VerifyIntegrity(), memutils.ErrIntegrity))
}

func TestBorrowSliceMutInvalidatesChecksums(t *testing.T) {
	arena, err := NewArena(128, verification.LevelFull)
	require.NoError(t, err)

	view, err := arena.BorrowSliceMut(0, 4)
	require.NoError(t, err)
	copy(view, "abcd")

	require.Equal(t, blockCount(128)-1, arena.Statistics().ChecksummedBlocks)
	require.NoError(t, arena.VerifyIntegrity())

	require.NoError(t, arena.WriteData(0, []byte("a")))
	require.Equal(t, blockCount(128), arena.Statistics().ChecksummedBlocks)
}

func TestLevelChangeIsNotRetroactive(t *testing.T) {
	arena, err := NewArena(128, verification.LevelStandard)
	require.NoError(t, err)
	require.NoError(t, arena.WriteData(0, []byte("before")))

	arena.SetVerificationLevel(verification.LevelFull)
	require.Equal(t, verification.LevelFull, arena.VerificationLevel())
	require.Equal(t, 0, arena.Statistics().ChecksummedBlocks)

	arena.data[0] = 'X'
	require.NoError(t, arena.VerifyIntegrity())

	require.NoError(t, arena.WriteData(100, []byte("after")))
	require.Equal(t, 1, arena.Statistics().ChecksummedBlocks)

	require.NoError(t, arena.RefreshChecksums())
	require.Equal(t, 2, arena.Statistics().ChecksummedBlocks)
	arena.data[1] = 'Y'
	require.True(t, errors.Is(arena.VerifyIntegrity(), memutils.ErrIntegrity))

	arena.SetVerificationLevel(verification.LevelStandard)
	require.NoError(t, arena.WriteData(0, []byte("re")))
	require.Equal(t, 1, arena.Statistics().ChecksummedBlocks)
	require.NoError(t, arena.VerifyIntegrity())
}

func TestVerifyAccessAtOffIsNoOp(t *testing.T) {
	arena, err := NewArena(16, verification.LevelOff)
	require.NoError(t, err)

	require.NoError(t, arena.VerifyAccess(100, 100, verification.ImportanceCritical))

	arena.SetVerificationLevel(verification.LevelStandard)
	require.True(t, errors.Is(arena.VerifyAccess(100, 100, verification.ImportanceCritical), memutils.ErrOutOfBounds))
	require.NoError(t, arena.VerifyAccess(100, 100, verification.ImportanceLow))
}

func TestDynamicArena(t *testing.T) {
	arena, err := NewDynamicArena(1024, verification.LevelFull)
	require.NoError(t, err)
	require.True(t, arena.IsDynamic())
	require.Equal(t, 1024, arena.Capacity())
	require.Equal(t, 0, arena.Size())
	require.Equal(t, 0, arena.AllocatedMemory())

	_, err = arena.BorrowSlice(0, 1)
	require.True(t, errors.Is(err, memutils.ErrOutOfBounds))

	require.NoError(t, arena.WriteData(100, []byte("grow")))
	require.Equal(t, 104, arena.Size())
	require.Equal(t, 104, arena.AllocatedMemory())
	require.NoError(t, arena.VerifyIntegrity())

	require.NoError(t, arena.EnsureUsedUpTo(500))
	require.Equal(t, 500, arena.Size())
	require.Equal(t, 500, arena.PeakMemory())
	require.NoError(t, arena.VerifyIntegrity())

	out := make([]byte, 4)
	require.NoError(t, arena.ReadData(100, out))
	require.Equal(t, "grow", string(out))

	require.NoError(t, arena.Resize(102))
	require.Equal(t, 102, arena.Size())
	require.Equal(t, 102, arena.AllocatedMemory())
	require.Equal(t, 500, arena.PeakMemory())
	require.NoError(t, arena.VerifyIntegrity())

	require.NoError(t, arena.EnsureUsedUpTo(104))
	require.NoError(t, arena.ReadData(100, out))
	require.Equal(t, []byte{'g', 'r', 0, 0}, out)

	require.True(t, errors.Is(arena.EnsureUsedUpTo(1025), memutils.ErrOutOfBounds))
	require.True(t, errors.Is(arena.WriteData(1020, []byte("overflow")), memutils.ErrOutOfBounds))
	require.Equal(t, 104, arena.Size())
}

func TestFixedArenaResize(t *testing.T) {
	arena, err := NewArena(64, verification.LevelStandard)
	require.NoError(t, err)

	require.NoError(t, arena.Resize(64))
	require.True(t, errors.Is(arena.Resize(32), memutils.ErrInvalidSize))
	require.NoError(t, arena.EnsureUsedUpTo(10))
	require.Equal(t, 64, arena.Size())
}

func TestPageBackedArena(t *testing.T) {
	capacity := 2*pages.Size() + 100
	arena, err := NewArena(capacity, verification.LevelFull, WithPageBacking())
	require.NoError(t, err)
	require.Equal(t, capacity, arena.Size())
	require.Equal(t, pages.Available, arena.unmap != nil)

	require.NoError(t, arena.WriteData(capacity-5, []byte("pages")))
	out := make([]byte, 5)
	require.NoError(t, arena.ReadData(capacity-5, out))
	require.Equal(t, "pages", string(out))
	require.NoError(t, arena.VerifyIntegrity())

	require.NoError(t, arena.Release())
	require.NoError(t, arena.Release())
}

func TestReleasedArena(t *testing.T) {
	arena, err := NewArena(32, verification.LevelStandard)
	require.NoError(t, err)
	require.NoError(t, arena.Release())

	_, err = arena.BorrowSlice(0, 1)
	require.True(t, errors.Is(err, memutils.ErrReleased))
	require.True(t, errors.Is(arena.WriteData(0, []byte{1}), memutils.ErrReleased))
	require.True(t, errors.Is(arena.ReadData(0, make([]byte, 1)), memutils.ErrReleased))
	require.True(t, errors.Is(arena.VerifyIntegrity(), memutils.ErrReleased))
	require.True(t, errors.Is(arena.EnsureUsedUpTo(1), memutils.ErrReleased))
	require.Equal(t, 0, arena.AllocatedMemory())
}
