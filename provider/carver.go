package provider

import (
	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/internal/utils"
	"github.com/wrtgo/foundation/memutils"
)

type carvedRegion struct {
	offset int
	length int
}

// Carver hands out consecutive, aligned Regions of a parent provider, as a stack: regions are
// carved from the low end upwards and only the most recent one can be given back. When built
// with debug_mem_utils a marker of memutils.DebugMargin bytes follows every region so that
// overruns can be detected with CheckCorruption.
type Carver struct {
	parent  Provider
	mutex   *utils.OptionalMutex
	regions []carvedRegion
	next    int
}

var _ memutils.Validatable = &Carver{}

// NewCarver creates a carver over parent. When synchronized is false the caller guarantees
// that the carver is never used from more than one goroutine at a time.
func NewCarver(parent Provider, synchronized bool) *Carver {
	return &Carver{
		parent: parent,
		mutex:  utils.NewOptionalMutex(synchronized),
	}
}

// Carve reserves length bytes aligned to alignment, which must be a power of two
func (c *Carver) Carve(length int, alignment uint) (*Region, error) {
	err := memutils.CheckPow2(alignment, "alignment")
	if err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, errors.Wrapf(memutils.ErrInvalidSize, "cannot carve a region of %d bytes", length)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	offset := memutils.AlignUp(c.next, alignment)
	end := offset + length + memutils.DebugMargin
	if offset < c.next || end > c.parent.Capacity() || end < offset {
		return nil, errors.Wrapf(&memutils.CapacityError{Capacity: c.parent.Capacity()},
			"cannot carve %d bytes aligned to %d: %d of %d bytes in use", length, alignment, c.next, c.parent.Capacity())
	}

	region, err := NewRegion(c.parent, offset, length)
	if err != nil {
		return nil, err
	}

	if memutils.DebugMargin > 0 {
		err = c.parent.EnsureUsedUpTo(end)
		if err != nil {
			return nil, err
		}

		marker, err := c.parent.BorrowSliceMut(offset+length, memutils.DebugMargin)
		if err != nil {
			return nil, err
		}
		memutils.WriteMagicValue(marker, 0)
	}

	c.regions = append(c.regions, carvedRegion{offset: offset, length: length})
	c.next = end
	memutils.DebugValidate(c)

	return region, nil
}

// Pop gives back the most recently carved region, which must be region
func (c *Carver) Pop(region *Region) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.regions) == 0 {
		return errors.New("no carved regions to pop")
	}

	last := c.regions[len(c.regions)-1]
	if region.parent != c.parent || region.offset != last.offset || region.length != last.length {
		return errors.Newf("region at offset %d is not the most recently carved region (offset %d)", region.offset, last.offset)
	}

	err := region.Release()
	if err != nil {
		return err
	}

	c.regions = c.regions[:len(c.regions)-1]
	if len(c.regions) == 0 {
		c.next = 0
	} else {
		previous := c.regions[len(c.regions)-1]
		c.next = previous.offset + previous.length + memutils.DebugMargin
	}

	return nil
}

// Reset forgets every carved region. Regions handed out earlier must no longer be used.
func (c *Carver) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.regions = c.regions[:0]
	c.next = 0
}

// Used returns the number of parent bytes consumed, including alignment padding and markers
func (c *Carver) Used() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.next
}

// Remaining returns the number of parent bytes not yet carved
func (c *Carver) Remaining() int {
	return c.parent.Capacity() - c.Used()
}

// RegionCount returns the number of live carved regions
func (c *Carver) RegionCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.regions)
}

// CheckCorruption verifies the marker after every carved region. It always succeeds unless
// built with debug_mem_utils.
func (c *Carver) CheckCorruption() error {
	if memutils.DebugMargin == 0 {
		return nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, region := range c.regions {
		marker, err := c.parent.BorrowSlice(region.offset+region.length, memutils.DebugMargin)
		if err != nil {
			return err
		}

		if !memutils.ValidateMagicValue(marker, 0) {
			return errors.Wrapf(memutils.ErrIntegrity, "memory corruption detected after region at offset %d", region.offset)
		}
	}

	return nil
}

// Validate checks that carved regions are ordered, disjoint and within the parent
func (c *Carver) Validate() error {
	previousEnd := 0
	for index, region := range c.regions {
		if region.offset < previousEnd {
			return errors.Newf("region %d at offset %d overlaps the previous region ending at %d", index, region.offset, previousEnd)
		}

		previousEnd = region.offset + region.length + memutils.DebugMargin
		if previousEnd > c.parent.Capacity() {
			return errors.Newf("region %d ends at %d, past the parent capacity of %d", index, previousEnd, c.parent.Capacity())
		}
	}

	if previousEnd != c.next {
		return errors.Newf("carver offset %d does not match the end of the last region %d", c.next, previousEnd)
	}

	return nil
}
