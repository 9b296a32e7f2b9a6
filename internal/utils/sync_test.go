package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionalRWMutexSerializesWriters(t *testing.T) {
	mutex := NewOptionalRWMutex(true)
	require.True(t, mutex.Enabled())

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				mutex.Lock()
				counter++
				mutex.Unlock()
			}
		}()
	}
	wg.Wait()

	mutex.RLock()
	require.Equal(t, 8000, counter)
	mutex.RUnlock()
}

func TestDisabledMutexesDoNotLock(t *testing.T) {
	rw := NewOptionalRWMutex(false)
	require.False(t, rw.Enabled())
	rw.Lock()
	rw.Lock()
	rw.Unlock()
	rw.Unlock()

	m := NewOptionalMutex(false)
	m.Lock()
	m.Lock()
	m.Unlock()
	m.Unlock()

	var zero OptionalRWMutex
	require.True(t, zero.Enabled())
	zero.Lock()
	require.False(t, zero.mutex.TryLock())
	zero.Unlock()
}
