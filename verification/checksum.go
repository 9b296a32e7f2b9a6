package verification

import (
	"fmt"
	"hash/adler32"
)

const (
	adlerModulus = 65521
	// largest n such that 255n(n+1)/2 + (n+1)(adlerModulus-1) fits in a uint32
	adlerBlock = 5552
)

// Checksum is an order-sensitive running Adler-32 checksum over a byte stream. The zero value
// is the checksum of no bytes. Copies are independent of each other.
type Checksum struct {
	// low holds the Adler-32 "a" sum minus one, so that the zero value is valid
	low  uint32
	high uint32
}

// Checksummable is implemented by values that can feed themselves into a running checksum
type Checksummable interface {
	UpdateChecksum(checksum *Checksum)
}

// Sum returns the checksum value of data without keeping any running state
func Sum(data []byte) uint32 {
	return adler32.Checksum(data)
}

func NewChecksum() Checksum {
	return Checksum{}
}

// Compute returns the checksum of data
func Compute(data []byte) Checksum {
	c := NewChecksum()
	c.Update(data)
	return c
}

// Update folds data into the checksum
func (c *Checksum) Update(data []byte) {
	a, b := c.low+1, c.high
	for len(data) > 0 {
		block := data
		if len(block) > adlerBlock {
			block = block[:adlerBlock]
		}
		data = data[len(block):]

		for _, x := range block {
			a += uint32(x)
			b += a
		}
		a %= adlerModulus
		b %= adlerModulus
	}
	c.low, c.high = a-1, b
}

// UpdateByte folds a single byte into the checksum
func (c *Checksum) UpdateByte(b byte) {
	a := (c.low + 1 + uint32(b)) % adlerModulus
	c.low, c.high = a-1, (c.high+a)%adlerModulus
}

// Value returns the current 32-bit checksum value
func (c *Checksum) Value() uint32 {
	return c.high<<16 | (c.low + 1)
}

// Reset returns the checksum to the state of an empty stream
func (c *Checksum) Reset() {
	*c = Checksum{}
}

// Equal reports whether two checksums have the same value
func (c *Checksum) Equal(other *Checksum) bool {
	return c.Value() == other.Value()
}

func (c *Checksum) String() string {
	return fmt.Sprintf("%08x", c.Value())
}
