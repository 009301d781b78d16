package assembly

import "sync"

// lockRegistry hands out one mutex per document id. Entries are reference
// counted and torn down when the last holder releases, so the registry does
// not grow with document churn.
type lockRegistry struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{entries: map[string]*lockEntry{}}
}

// acquire blocks until the document lock is held and returns the release
// function. Callers must release exactly once.
func (r *lockRegistry) acquire(id string) func() {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if !ok {
		entry = &lockEntry{}
		r.entries[id] = entry
	}
	entry.refs++
	r.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		r.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(r.entries, id)
		}
		r.mu.Unlock()
	}
}

// size reports the number of live entries, for tests.
func (r *lockRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
