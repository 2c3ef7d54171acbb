// Package redisdb stores documents as JSON strings under a key prefix of a redis database.
package redisdb

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/storage/database/keylock"
)

const scanCount = 200

type Store struct {
	client redis.UniversalClient
	prefix string
	locks  *keylock.Locks
}

var (
	_ core.Store  = (*Store)(nil)
	_ core.Locker = (*Store)(nil)
)

// Open connects to the redis server described by conf.
func Open(ctx context.Context, conf core.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return New(client, conf.Prefix), nil
}

func New(client redis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix, locks: keylock.New()}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, key string, dst interface{}) error {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.ErrNotFound
		}
		return errors.Wrapf(err, "getting %q", key)
	}
	return errors.Wrapf(json.Unmarshal(data, dst), "decoding %q", key)
}

func (s *Store) Put(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	return errors.Wrapf(s.client.Set(ctx, s.prefix+key, data, 0).Err(), "setting %q", key)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return errors.Wrapf(s.client.Del(ctx, s.prefix+key).Err(), "deleting %q", key)
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	pattern := globEscaper.Replace(s.prefix+prefix) + "*"
	seen := make(map[string]bool)
	iter := s.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		seen[strings.TrimPrefix(iter.Val(), s.prefix)] = true
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning documents")
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Lock(key string) func() {
	return s.locks.Lock(key)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
