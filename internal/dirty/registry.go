package dirty

import (
	"sync"
	"time"
)

// Registry holds one Tracker per guest session. Trackers live in process
// memory only; idle ones are dropped by Sweep.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*entry
	now      func() time.Time
}

type entry struct {
	tracker  *Tracker
	lastSeen time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		trackers: make(map[string]*entry),
		now:      time.Now,
	}
}

// For returns the session's tracker, creating it on first use.
func (r *Registry) For(sessionID string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.trackers[sessionID]
	if !ok {
		e = &entry{tracker: NewTracker()}
		r.trackers[sessionID] = e
	}
	e.lastSeen = r.now()
	return e.tracker
}

func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.trackers, sessionID)
	r.mu.Unlock()
}

// Sweep removes trackers not touched within idle and returns how many.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for id, e := range r.trackers {
		if e.lastSeen.Before(cutoff) {
			delete(r.trackers, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}
