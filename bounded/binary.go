package bounded

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
)

const binaryHeaderSize = 8

// marshalRecords encodes count raw records as a header of element count and record size
// followed by the records in natural order
func marshalRecords(s *slots, count int, index func(i int) int) ([]byte, error) {
	out := make([]byte, binaryHeaderSize, binaryHeaderSize+count*s.size)
	binary.LittleEndian.PutUint32(out[0:], uint32(count))
	binary.LittleEndian.PutUint32(out[4:], uint32(s.size))

	for i := 0; i < count; i++ {
		record, err := s.load(index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, record...)
	}

	return out, nil
}

// unmarshalHeader validates data against a collection of the given capacity and record size,
// returning the element count
func unmarshalHeader(data []byte, capacity, size int) (int, error) {
	if len(data) < binaryHeaderSize {
		return 0, errors.Wrapf(memutils.ErrInvalidSize, "encoded collection of %d bytes is shorter than its header", len(data))
	}

	count := int(binary.LittleEndian.Uint32(data[0:]))
	recordSize := int(binary.LittleEndian.Uint32(data[4:]))
	if recordSize != size {
		return 0, errors.Newf("encoded records are %d bytes but this collection stores %d byte records", recordSize, size)
	}
	if count > capacity {
		return 0, capacityError(capacity)
	}
	if len(data) != binaryHeaderSize+count*size {
		return 0, errors.Wrapf(memutils.ErrInvalidSize, "encoded collection of %d elements has %d bytes, expected %d",
			count, len(data), binaryHeaderSize+count*size)
	}

	return count, nil
}

func record(data []byte, size, i int) []byte {
	start := binaryHeaderSize + i*size
	return data[start : start+size]
}
