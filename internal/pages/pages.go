// Package pages obtains zeroed backing memory for arenas, directly from the operating system
// where that is possible so that large arenas do not live on the garbage-collected heap.
package pages

import "os"

// Size returns the operating system page size
func Size() int {
	return os.Getpagesize()
}

// RoundUp rounds size up to a whole number of pages
func RoundUp(size int) int {
	pageSize := Size()
	return (size + pageSize - 1) / pageSize * pageSize
}
