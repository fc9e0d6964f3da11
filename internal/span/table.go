// Package span keeps the start times of spans that have started but not yet
// ended.
package span

import (
	"sync"
	"time"
)

// Table maps a span ID to the instant its start event was seen. It is
// shared by every stream reader; each method is a single critical section.
type Table struct {
	mu   sync.Mutex
	open map[string]time.Time
}

func NewTable() *Table {
	return &Table{open: make(map[string]time.Time)}
}

// Start records id as open since at. A repeated start for an open id
// replaces the earlier start time and reports replaced.
func (t *Table) Start(id string, at time.Time) (replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, replaced = t.open[id]
	t.open[id] = at
	return replaced
}

// End removes id and returns when it started. ok is false, and the table is
// left untouched, when id is not open.
func (t *Table) End(id string) (start time.Time, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok = t.open[id]
	if ok {
		delete(t.open, id)
	}
	return start, ok
}

// Evict drops every span that started before cutoff and returns their IDs.
func (t *Table) Evict(cutoff time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var evicted []string
	for id, start := range t.open {
		if start.Before(cutoff) {
			delete(t.open, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

// Lookup reports the start time of an open span without consuming it.
func (t *Table) Lookup(id string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.open[id]
	return start, ok
}
