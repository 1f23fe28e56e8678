package ai

import (
	"sync"
	"time"
)

// InFlight tracks outstanding advisor calls by call-site key so duplicates can be refused
type InFlight struct {
	mu     sync.Mutex
	active map[string]time.Time
}

// NewInFlight creates an empty tracker
func NewInFlight() *InFlight {
	return &InFlight{active: make(map[string]time.Time)}
}

// TryAcquire marks key as in flight. It returns false if it already was.
func (f *InFlight) TryAcquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[key]; busy {
		return false
	}
	f.active[key] = time.Now()
	return true
}

// Release clears key
func (f *InFlight) Release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, key)
}

// Active reports whether key is in flight
func (f *InFlight) Active(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.active[key]
	return busy
}

// Since returns when key was acquired
func (f *InFlight) Since(key string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, busy := f.active[key]
	return at, busy
}
