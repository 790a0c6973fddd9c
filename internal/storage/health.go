package storage

import (
	"sync"
	"time"
)

// Store health states
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Health is the outcome of the latest save to one store
type Health struct {
	LastSave   time.Time
	Status     string
	Error      string
	Saves      int
	Failures   int
	Iterations int
}

// HealthTracker keeps the save health of each store in memory
type HealthTracker struct {
	mu     sync.RWMutex
	health map[string]*Health
}

// NewHealthTracker creates an empty tracker
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{health: make(map[string]*Health)}
}

// Record notes the outcome of a save of a record holding iterations
// iterations
func (ht *HealthTracker) Record(store string, iterations int, err error) {
	ht.mu.Lock()
	defer ht.mu.Unlock()

	h, ok := ht.health[store]
	if !ok {
		h = &Health{}
		ht.health[store] = h
	}
	h.LastSave = time.Now()
	h.Saves++
	if err != nil {
		h.Status = StatusUnhealthy
		h.Error = err.Error()
		h.Failures++
		return
	}
	h.Status = StatusHealthy
	h.Error = ""
	h.Iterations = iterations
}

// Get returns a copy of the health of store
func (ht *HealthTracker) Get(store string) (Health, bool) {
	ht.mu.RLock()
	defer ht.mu.RUnlock()

	h, ok := ht.health[store]
	if !ok {
		return Health{}, false
	}
	return *h, true
}

// All returns a copy of every tracked store's health
func (ht *HealthTracker) All() map[string]Health {
	ht.mu.RLock()
	defer ht.mu.RUnlock()

	result := make(map[string]Health, len(ht.health))
	for k, v := range ht.health {
		result[k] = *v
	}
	return result
}

// IsHealthy reports whether the latest save to store succeeded
func (ht *HealthTracker) IsHealthy(store string) bool {
	h, ok := ht.Get(store)
	return ok && h.Status == StatusHealthy
}
