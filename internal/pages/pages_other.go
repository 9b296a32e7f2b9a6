//go:build !linux && !darwin && !freebsd

package pages

import "github.com/cockroachdb/errors"

const Available = false

// Map allocates size zeroed bytes on the heap where anonymous mappings are not supported
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, errors.Newf("cannot map %d bytes", size)
	}

	return make([]byte, size), func() error { return nil }, nil
}
