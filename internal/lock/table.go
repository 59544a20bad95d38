// Package lock provides per-key mutual exclusion for table operations.
package lock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs *RefCount
}

// Table hands out one mutex per key. Entries exist only while some caller
// holds or waits for the key.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewTable() *Table {
	return &Table{entries: make(map[string]*entry)}
}

// Lock blocks until key is free and returns the function that releases it.
// Calling the release function more than once is a no-op.
func (t *Table) Lock(key string) (unlock func()) {
	t.mu.Lock()
	e, ok := t.entries[key]
	if ok {
		e.refs.Inc()
	} else {
		e = &entry{refs: NewRefCount()}
		t.entries[key] = e
	}
	t.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			t.mu.Lock()
			if e.refs.Dec() {
				delete(t.entries, key)
			}
			t.mu.Unlock()
		})
	}
}

// Len is the number of keys currently held or awaited.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
