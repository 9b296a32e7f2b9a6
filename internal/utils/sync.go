package utils

import (
	"sync"
)

// OptionalMutex is a sync.Mutex that can be switched off for owners whose callers already
// serialize access to them
type OptionalMutex struct {
	mutex    sync.Mutex
	disabled bool
}

// NewOptionalMutex creates a mutex that locks only when enabled is true
func NewOptionalMutex(enabled bool) *OptionalMutex {
	return &OptionalMutex{disabled: !enabled}
}

func (m *OptionalMutex) Lock() {
	if !m.disabled {
		m.mutex.Lock()
	}
}

func (m *OptionalMutex) Unlock() {
	if !m.disabled {
		m.mutex.Unlock()
	}
}

// OptionalRWMutex is the reader/writer counterpart of OptionalMutex. The zero value locks.
type OptionalRWMutex struct {
	mutex    sync.RWMutex
	disabled bool
}

// NewOptionalRWMutex creates a reader/writer mutex that locks only when enabled is true
func NewOptionalRWMutex(enabled bool) *OptionalRWMutex {
	return &OptionalRWMutex{disabled: !enabled}
}

// Enabled reports whether the mutex actually locks
func (m *OptionalRWMutex) Enabled() bool {
	return !m.disabled
}

func (m *OptionalRWMutex) Lock() {
	if !m.disabled {
		m.mutex.Lock()
	}
}

func (m *OptionalRWMutex) Unlock() {
	if !m.disabled {
		m.mutex.Unlock()
	}
}

func (m *OptionalRWMutex) RLock() {
	if !m.disabled {
		m.mutex.RLock()
	}
}

func (m *OptionalRWMutex) RUnlock() {
	if !m.disabled {
		m.mutex.RUnlock()
	}
}
