package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when no document is saved under a key.
var ErrNotFound = errors.New("document not found")

type (
	// Store persists JSON documents under slash separated keys, e.g. "attendance/全-1-1組-2025".
	Store interface {
		// Get decodes the document saved under key into dst.
		Get(ctx context.Context, key string, dst interface{}) error
		// Put replaces the document saved under key with v.
		Put(ctx context.Context, key string, v interface{}) error
		// Delete removes the document saved under key. Deleting a missing document is not an error.
		Delete(ctx context.Context, key string) error
		// List returns the sorted keys starting with prefix.
		List(ctx context.Context, prefix string) ([]string, error)
	}

	// Locker is implemented by stores able to serialize writers of the same key.
	Locker interface {
		Lock(key string) (unlock func())
	}
)

// Load decodes the document saved under key into dst.
// A missing document leaves dst untouched and is not an error.
func Load(ctx context.Context, store Store, key string, dst interface{}) error {
	if err := store.Get(ctx, key, dst); err != nil && err != ErrNotFound {
		return err
	}
	return nil
}

// Update loads the document saved under key into dst, calls fn then saves dst back.
// The whole cycle holds the key lock when store is a Locker.
func Update(ctx context.Context, store Store, key string, dst interface{}, fn func() error) error {
	return Mutate(ctx, store, key, dst, func() (bool, error) {
		return true, fn()
	})
}

// Mutate works like Update but deletes the document when fn reports it must not be kept.
func Mutate(ctx context.Context, store Store, key string, dst interface{}, fn func() (keep bool, err error)) error {
	if l, ok := store.(Locker); ok {
		unlock := l.Lock(key)
		defer unlock()
	}
	if err := Load(ctx, store, key, dst); err != nil {
		return err
	}
	keep, err := fn()
	if err != nil {
		return err
	}
	if !keep {
		return store.Delete(ctx, key)
	}
	return store.Put(ctx, key, dst)
}
