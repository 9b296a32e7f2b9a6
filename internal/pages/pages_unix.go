//go:build linux || darwin || freebsd

package pages

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Available reports whether Map returns memory outside the Go heap on this platform
const Available = true

// Map returns size bytes of zeroed, private, anonymous memory together with the function that
// gives it back. The returned slice is exactly size bytes long; the mapping itself is rounded
// up to whole pages. The release function may be called more than once.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, errors.Newf("cannot map %d bytes", size)
	}

	mapped, err := unix.Mmap(-1, 0, RoundUp(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to map %d bytes of anonymous memory", size)
	}

	release := func() error {
		if mapped == nil {
			return nil
		}

		err := unix.Munmap(mapped)
		mapped = nil
		if err != nil && !errors.Is(err, unix.EINVAL) {
			return errors.Wrap(err, "failed to unmap arena pages")
		}
		return nil
	}

	return mapped[:size:size], release, nil
}
