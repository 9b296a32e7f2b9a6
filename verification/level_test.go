package verification_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wrtgo/foundation/verification"
)

func TestLevelOrdering(t *testing.T) {
	require.Less(t, verification.LevelOff, verification.LevelSampling)
	require.Less(t, verification.LevelSampling, verification.LevelStandard)
	require.Less(t, verification.LevelStandard, verification.LevelFull)
	require.Less(t, verification.LevelFull, verification.LevelRedundant)
}

func TestShouldVerify(t *testing.T) {
	require.False(t, verification.LevelOff.ShouldVerify(verification.ImportanceCritical))

	require.True(t, verification.LevelStandard.ShouldVerify(verification.ImportanceMedium))
	require.False(t, verification.LevelStandard.ShouldVerify(verification.ImportanceLow))

	require.True(t, verification.LevelFull.ShouldVerify(0))
	require.True(t, verification.LevelRedundant.ShouldVerify(0))
	require.True(t, verification.LevelRedundant.ShouldVerifyRedundant())
	require.False(t, verification.LevelFull.ShouldVerifyRedundant())

	require.True(t, verification.LevelSampling.ShouldVerify(verification.ImportanceHigh))

	sampled := 0
	for i := 0; i < 160; i++ {
		if verification.LevelSampling.ShouldVerify(0) {
			sampled++
		}
	}
	require.Equal(t, 10, sampled)
}

func TestParseLevel(t *testing.T) {
	level, err := verification.ParseLevel("redundant")
	require.NoError(t, err)
	require.Equal(t, verification.LevelRedundant, level)
	require.Equal(t, "Redundant", level.String())

	_, err = verification.ParseLevel("paranoid")
	require.Error(t, err)
}

func TestChecksum(t *testing.T) {
	a := verification.Compute([]byte("abc"))
	b := verification.NewChecksum()
	b.Update([]byte("ab"))
	b.UpdateByte('c')
	require.True(t, a.Equal(&b))

	reordered := verification.Compute([]byte("cba"))
	require.False(t, a.Equal(&reordered))

	b.Reset()
	empty := verification.NewChecksum()
	require.Equal(t, empty.Value(), b.Value())

	var zero verification.Checksum
	require.Equal(t, uint32(1), zero.Value())
}

func TestChecksumCopiesAreIndependent(t *testing.T) {
	original := verification.Compute([]byte("abc"))
	before := original.Value()

	copied := original
	copied.Update([]byte("xyz"))

	require.Equal(t, before, original.Value())
	require.Equal(t, verification.Sum([]byte("abcxyz")), copied.Value())
}

func TestChecksumMatchesSum(t *testing.T) {
	data := make([]byte, 20000)
	for i := range data {
		data[i] = 0xFF - byte(i%7)
	}

	require.Equal(t, verification.Sum(data), verification.Compute(data).Value())

	byteWise := verification.NewChecksum()
	for _, b := range data[:6000] {
		byteWise.UpdateByte(b)
	}
	byteWise.Update(data[6000:])
	require.Equal(t, verification.Sum(data), byteWise.Value())
}
