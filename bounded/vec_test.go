package bounded_test

import (
	"iter"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/wrtgo/foundation/bounded"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

func newArena(t *testing.T, size int, level verification.Level) *provider.Arena {
	arena, err := provider.NewArena(size, level)
	require.NoError(t, err)
	return arena
}

func collect[T any](seq iter.Seq[T]) []T {
	var out []T
	for value := range seq {
		out = append(out, value)
	}
	return out
}

func TestVecCreation(t *testing.T) {
	testCases := map[string]struct {
		ArenaSize int
		Capacity  int
		Valid     bool
	}{
		"Exact":        {ArenaSize: 32, Capacity: 4, Valid: true},
		"Spare":        {ArenaSize: 100, Capacity: 4, Valid: true},
		"TooSmall":     {ArenaSize: 31, Capacity: 4},
		"ZeroCapacity": {ArenaSize: 32, Capacity: 0},
		"Negative":     {ArenaSize: 32, Capacity: -1},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			vec, err := bounded.NewVec(newArena(t, testCase.ArenaSize, verification.LevelStandard), testCase.Capacity, bounded.Int())
			if !testCase.Valid {
				require.True(t, errors.Is(err, memutils.ErrInvalidSize))
				return
			}

			require.NoError(t, err)
			require.Equal(t, testCase.Capacity, vec.Capacity())
			require.True(t, vec.IsEmpty())
		})
	}

	_, err := bounded.NewVec[int](nil, 4, bounded.Int())
	require.Error(t, err)
	_, err = bounded.NewVec[int](newArena(t, 32, verification.LevelStandard), 4, nil)
	require.Error(t, err)
}

func TestVecPushPop(t *testing.T) {
	vec, err := bounded.NewVec(newArena(t, bounded.VecBytes(4, bounded.Uint32()), verification.LevelFull), 4, bounded.Uint32())
	require.NoError(t, err)

	for i := uint32(1); i <= 4; i++ {
		require.NoError(t, vec.Push(i*10))
	}
	require.True(t, vec.IsFull())

	err = vec.Push(50)
	require.True(t, errors.Is(err, memutils.ErrCapacityExceeded))
	var capacityErr *memutils.CapacityError
	require.True(t, errors.As(err, &capacityErr))
	require.Equal(t, 4, capacityErr.Capacity)
	require.Equal(t, 4, vec.Len())

	value, ok, err := vec.Get(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(30), value)

	_, ok, err = vec.Get(4)
	require.NoError(t, err)
	require.False(t, ok)

	var popped []uint32
	for {
		value, ok, err := vec.Pop()
		require.NoError(t, err)
		if !ok {
			break
		}
		popped = append(popped, value)
	}
	require.Equal(t, []uint32{40, 30, 20, 10}, popped)
	require.Equal(t, 4, vec.Capacity())
	require.NoError(t, vec.Provider().VerifyIntegrity())
}

func TestVecInsertRemove(t *testing.T) {
	vec, err := bounded.NewVec(newArena(t, 64, verification.LevelStandard), 5, bounded.Int16())
	require.NoError(t, err)

	for _, value := range []int16{1, 2, 4} {
		require.NoError(t, vec.Push(value))
	}
	require.NoError(t, vec.Insert(2, 3))
	require.NoError(t, vec.Insert(0, 0))
	require.Equal(t, []int16{0, 1, 2, 3, 4}, collect(vec.Values()))

	require.True(t, errors.Is(vec.Insert(1, 9), memutils.ErrCapacityExceeded))
	require.True(t, errors.Is(vec.Insert(7, 9), memutils.ErrOutOfBounds))

	value, ok, err := vec.Remove(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int16(1), value)
	require.Equal(t, []int16{0, 2, 3, 4}, collect(vec.Values()))

	_, ok, err = vec.Remove(10)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, vec.Set(0, -5))
	require.True(t, errors.Is(vec.Set(4, 1), memutils.ErrOutOfBounds))

	index, err := vec.IndexFunc(func(value int16) bool { return value == 3 })
	require.NoError(t, err)
	require.Equal(t, 2, index)

	require.NoError(t, vec.Truncate(2))
	require.Equal(t, []int16{-5, 2}, collect(vec.Values()))

	// Scrubbed slots read back as zero once they are reused
	raw, err := vec.Provider().BorrowSlice(4, 6)
	require.NoError(t, err)
	require.Equal(t, make([]byte, 6), raw)
}

func TestVecIterationIsRestartable(t *testing.T) {
	vec, err := bounded.NewVec(newArena(t, 64, verification.LevelStandard), 8, bounded.Uint8())
	require.NoError(t, err)
	for i := uint8(0); i < 5; i++ {
		require.NoError(t, vec.Push(i))
	}

	first := collect(vec.Values())
	second := collect(vec.Values())
	require.Equal(t, first, second)
	require.Equal(t, 5, vec.Len())

	count := 0
	for index, value := range vec.All() {
		require.Equal(t, uint8(index), value)
		count++
		if index == 2 {
			break
		}
	}
	require.Equal(t, 3, count)
}

func TestVecCloneAndMarshal(t *testing.T) {
	vec, err := bounded.NewVec(newArena(t, 64, verification.LevelStandard), 6, bounded.FixedString(6))
	require.NoError(t, err)
	for _, word := range []string{"alpha", "beta", "gamma"} {
		require.NoError(t, vec.Push(word))
	}

	clone, err := vec.Clone(newArena(t, 64, verification.LevelFull))
	require.NoError(t, err)
	require.NoError(t, vec.Set(0, "omega"))
	require.Equal(t, []string{"alpha", "beta", "gamma"}, collect(clone.Values()))

	data, err := clone.MarshalBinary()
	require.NoError(t, err)

	decoded, err := bounded.NewVec(newArena(t, 64, verification.LevelStandard), 6, bounded.FixedString(6))
	require.NoError(t, err)
	require.NoError(t, decoded.UnmarshalBinary(data))
	require.Equal(t, []string{"alpha", "beta", "gamma"}, collect(decoded.Values()))

	original, err := clone.Checksum()
	require.NoError(t, err)
	roundTripped, err := decoded.Checksum()
	require.NoError(t, err)
	require.Equal(t, original.Value(), roundTripped.Value())

	small, err := bounded.NewVec(newArena(t, 64, verification.LevelStandard), 2, bounded.FixedString(6))
	require.NoError(t, err)
	require.True(t, errors.Is(small.UnmarshalBinary(data), memutils.ErrCapacityExceeded))

	other, err := bounded.NewVec(newArena(t, 64, verification.LevelStandard), 6, bounded.Int32())
	require.NoError(t, err)
	require.Error(t, other.UnmarshalBinary(data))
	require.True(t, errors.Is(other.UnmarshalBinary(data[:3]), memutils.ErrInvalidSize))
}

func TestVecEncodeFailureLeavesStateUnchanged(t *testing.T) {
	vec, err := bounded.NewVec(newArena(t, 64, verification.LevelStandard), 4, bounded.FixedBytes(2))
	require.NoError(t, err)
	require.NoError(t, vec.Push([]byte{1}))

	require.True(t, errors.Is(vec.Push([]byte{1, 2, 3}), memutils.ErrInvalidSize))
	require.True(t, errors.Is(vec.Insert(0, []byte{1, 2, 3}), memutils.ErrInvalidSize))
	require.Equal(t, 1, vec.Len())

	value, ok, err := vec.Get(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{1}, value)
}

func TestStackIsLIFO(t *testing.T) {
	stack, err := bounded.NewStack(newArena(t, bounded.StackBytes(3, bounded.Int()), verification.LevelStandard), 3, bounded.Int())
	require.NoError(t, err)

	_, ok, err := stack.Pop()
	require.NoError(t, err)
	require.False(t, ok)

	for i := 1; i <= 3; i++ {
		require.NoError(t, stack.Push(i))
	}
	require.True(t, errors.Is(stack.Push(4), memutils.ErrCapacityExceeded))

	top, ok, err := stack.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, top)
	require.Equal(t, []int{3, 2, 1}, collect(stack.All()))

	data, err := stack.MarshalBinary()
	require.NoError(t, err)

	for _, expected := range []int{3, 2, 1} {
		value, ok, err := stack.Pop()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, expected, value)
	}

	require.NoError(t, stack.UnmarshalBinary(data))
	require.Equal(t, []int{3, 2, 1}, collect(stack.All()))
	require.NoError(t, stack.Release())
}
