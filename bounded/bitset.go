package bounded

import (
	"encoding/binary"
	"iter"
	"math/bits"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

const wordBits = 64

// BitSet is a fixed number of bits packed into little-endian 64-bit words. Len is the number
// of set bits and Capacity the number of bits.
type BitSet struct {
	words slots
	bits  int
	count int
	word  [8]byte
}

func wordCount(bits int) int {
	return (bits + wordBits - 1) / wordBits
}

// BitSetBytes returns the number of provider bytes a BitSet of the given number of bits needs
func BitSetBytes(bits int) int {
	return wordCount(bits) * 8
}

// NewBitSet creates a bit set of the given number of bits, all unset, stored in p
func NewBitSet(p provider.Provider, bits int) (*BitSet, error) {
	if bits <= 0 {
		return nil, errors.Wrapf(memutils.ErrInvalidSize, "bit set size %d must be positive", bits)
	}

	words, err := newSlots(p, wordCount(bits), 8)
	if err != nil {
		return nil, err
	}

	set := &BitSet{words: words, bits: bits}
	// The provider may hand out memory that was used before
	err = words.scrubRange(0, words.capacity)
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (b *BitSet) Len() int { return b.count }

func (b *BitSet) Capacity() int { return b.bits }

func (b *BitSet) IsEmpty() bool { return b.count == 0 }

func (b *BitSet) IsFull() bool { return b.count == b.bits }

func (b *BitSet) Provider() provider.Provider { return b.words.provider }

func (b *BitSet) checkIndex(index int) error {
	if index < 0 || index >= b.bits {
		return errors.WithStack(&memutils.BoundsError{Offset: index, Length: 1, Size: b.bits})
	}
	return nil
}

func (b *BitSet) load(word int) (uint64, error) {
	record, err := b.words.load(word)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(record), nil
}

func (b *BitSet) store(word int, value uint64) error {
	binary.LittleEndian.PutUint64(b.word[:], value)
	return b.words.store(word, b.word[:])
}

// update applies change to the word holding index and returns the bit's previous value
func (b *BitSet) update(index int, change func(word, mask uint64) uint64) (bool, error) {
	err := b.checkIndex(index)
	if err != nil {
		return false, err
	}

	word, err := b.load(index / wordBits)
	if err != nil {
		return false, err
	}

	mask := uint64(1) << (index % wordBits)
	was := word&mask != 0
	updated := change(word, mask)
	if updated == word {
		return was, nil
	}

	err = b.store(index/wordBits, updated)
	if err != nil {
		return false, err
	}

	if was {
		b.count--
	} else {
		b.count++
	}
	return was, nil
}

// Set sets the bit at index and reports whether it was already set
func (b *BitSet) Set(index int) (bool, error) {
	return b.update(index, func(word, mask uint64) uint64 { return word | mask })
}

// Unset clears the bit at index and reports whether it was set
func (b *BitSet) Unset(index int) (bool, error) {
	return b.update(index, func(word, mask uint64) uint64 { return word &^ mask })
}

// Toggle flips the bit at index and returns its previous value
func (b *BitSet) Toggle(index int) (bool, error) {
	return b.update(index, func(word, mask uint64) uint64 { return word ^ mask })
}

func (b *BitSet) Test(index int) (bool, error) {
	err := b.checkIndex(index)
	if err != nil {
		return false, err
	}

	word, err := b.load(index / wordBits)
	if err != nil {
		return false, err
	}
	return word&(uint64(1)<<(index%wordBits)) != 0, nil
}

// Clear unsets every bit
func (b *BitSet) Clear() error {
	if b.count == 0 {
		return nil
	}

	err := b.words.scrubRange(0, b.words.capacity)
	if err != nil {
		return err
	}

	b.count = 0
	return nil
}

// All iterates over the indices of set bits in ascending order
func (b *BitSet) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for index := 0; index < b.words.capacity; index++ {
			word, err := b.load(index)
			if err != nil {
				return
			}

			for word != 0 {
				bit := bits.TrailingZeros64(word)
				if !yield(index*wordBits + bit) {
					return
				}
				word &= word - 1
			}
		}
	}
}

func (b *BitSet) Checksum() (verification.Checksum, error) {
	return b.words.checksum(func(yield func(int) bool) {
		for index := 0; index < b.words.capacity; index++ {
			if !yield(index) {
				return
			}
		}
	})
}

func (b *BitSet) Release() error {
	b.count = 0
	return b.words.release()
}
