package inmemdb

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/storage/database/keylock"
)

// Store keeps documents in memory, JSON encoded so callers never share state with it.
type Store struct {
	mutex sync.RWMutex
	table map[string][]byte
	locks *keylock.Locks
}

var (
	_ core.Store  = (*Store)(nil)
	_ core.Locker = (*Store)(nil)
)

func Open() *Store {
	return &Store{
		table: make(map[string][]byte),
		locks: keylock.New(),
	}
}

func (s *Store) Get(_ context.Context, key string, dst interface{}) error {
	s.mutex.RLock()
	data, ok := s.table[key]
	s.mutex.RUnlock()

	if !ok {
		return core.ErrNotFound
	}
	return errors.Wrapf(json.Unmarshal(data, dst), "decoding %q", key)
}

func (s *Store) Put(_ context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.table[key] = data
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.table, key)
	return nil
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0)
	for key := range s.table {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Lock(key string) func() {
	return s.locks.Lock(key)
}
