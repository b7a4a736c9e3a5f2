// Package dirty tracks which resume sections hold edits that have not been
// persisted to their backing store yet.
package dirty

import (
	"sort"
	"sync"
)

// Tracker is a set of dirty section names. Safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewTracker() *Tracker {
	return &Tracker{flags: make(map[string]bool)}
}

func (t *Tracker) MarkDirty(section string) {
	t.mu.Lock()
	t.flags[section] = true
	t.mu.Unlock()
}

func (t *Tracker) MarkClean(section string) {
	t.mu.Lock()
	delete(t.flags, section)
	t.mu.Unlock()
}

// Set marks section dirty or clean.
func (t *Tracker) Set(section string, dirty bool) {
	if dirty {
		t.MarkDirty(section)
		return
	}
	t.MarkClean(section)
}

func (t *Tracker) IsDirty(section string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.flags[section]
}

func (t *Tracker) IsAnyDirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.flags) > 0
}

// DirtySections returns the dirty section names in sorted order.
func (t *Tracker) DirtySections() []string {
	t.mu.RLock()
	out := make([]string, 0, len(t.flags))
	for s := range t.flags {
		out = append(out, s)
	}
	t.mu.RUnlock()

	sort.Strings(out)
	return out
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	t.flags = make(map[string]bool)
	t.mu.Unlock()
}
