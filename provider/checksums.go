package provider

import (
	"math/bits"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/verification"
)

// blockChecksums keeps one checksum per ChecksumBlockSize bytes of a region, together with a
// bit per block recording whether the stored checksum describes the current contents.
type blockChecksums struct {
	sums  []uint32
	valid []uint64
}

func (b *blockChecksums) resize(blocks int) {
	if blocks <= len(b.sums) {
		b.sums = b.sums[:blocks]
		for i := blocks; i < len(b.valid)*64; i++ {
			b.valid[i/64] &^= 1 << (i % 64)
		}
		b.valid = b.valid[:(blocks+63)/64]
		return
	}

	b.sums = append(b.sums, make([]uint32, blocks-len(b.sums))...)
	words := (blocks + 63) / 64
	if words > len(b.valid) {
		b.valid = append(b.valid, make([]uint64, words-len(b.valid))...)
	}
}

func (b *blockChecksums) isValid(block int) bool {
	return b.valid[block/64]&(1<<(block%64)) != 0
}

func blockData(data []byte, block int) []byte {
	start := block * ChecksumBlockSize
	end := start + ChecksumBlockSize
	if end > len(data) {
		end = len(data)
	}
	return data[start:end]
}

// refresh recomputes the checksums of blocks first..last over data, which must be the
// accessible part of the region
func (b *blockChecksums) refresh(data []byte, first, last int) {
	for block := first; block <= last && block < len(b.sums); block++ {
		b.sums[block] = verification.Sum(blockData(data, block))
		b.valid[block/64] |= 1 << (block % 64)
	}
}

func (b *blockChecksums) invalidate(first, last int) {
	for block := first; block <= last && block < len(b.sums); block++ {
		b.valid[block/64] &^= 1 << (block % 64)
	}
}

// verify checks every valid block in first..last. With redundant set each block is summed
// twice and the two results must agree with each other as well as with the stored value.
func (b *blockChecksums) verify(data []byte, first, last int, redundant bool) error {
	for block := first; block <= last && block < len(b.sums); block++ {
		if !b.isValid(block) {
			continue
		}

		contents := blockData(data, block)
		sum := verification.Sum(contents)
		if redundant {
			second := verification.Sum(contents)
			if second != sum {
				return errors.Wrapf(memutils.ErrIntegrity, "block %d produced unstable checksums %08x and %08x", block, sum, second)
			}
		}

		if sum != b.sums[block] {
			return errors.WithDetailf(
				errors.Wrapf(memutils.ErrIntegrity, "checksum mismatch in block %d", block),
				"expected %08x, computed %08x over bytes [%d, %d)", b.sums[block], sum,
				block*ChecksumBlockSize, block*ChecksumBlockSize+len(contents))
		}
	}

	return nil
}

// count returns the number of blocks with a valid checksum
func (b *blockChecksums) count() int {
	total := 0
	for _, word := range b.valid {
		total += bits.OnesCount64(word)
	}
	return total
}
