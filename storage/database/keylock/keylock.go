// Package keylock serializes writers of the same document key.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locks hands out one mutex per key, released once nobody holds or waits for it.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *Locks {
	return &Locks{locks: make(map[string]*entry)}
}

// Lock blocks until key is free and returns its unlock func.
func (l *Locks) Lock(key string) func() {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = new(entry)
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
