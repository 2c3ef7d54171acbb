// Package sqlxdb stores documents as JSONB rows of the postgres documents table.
package sqlxdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/storage/database/keylock"
)

const (
	getQuery    = `SELECT body FROM documents WHERE key = $1`
	deleteQuery = `DELETE FROM documents WHERE key = $1`
	listQuery   = `SELECT key FROM documents WHERE key LIKE $1 ESCAPE '\' ORDER BY key`
	upsertQuery = `
INSERT INTO documents (key, body, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Store needs the documents table created by the database migrations.
// Locks only serialize the writers of this process.
type Store struct {
	db    *sqlx.DB
	locks *keylock.Locks
}

var (
	_ core.Store  = (*Store)(nil)
	_ core.Locker = (*Store)(nil)
)

func New(db *sqlx.DB) *Store {
	return &Store{db: db, locks: keylock.New()}
}

func (s *Store) Get(ctx context.Context, key string, dst interface{}) error {
	var body []byte
	if err := s.db.GetContext(ctx, &body, getQuery, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		return errors.Wrapf(err, "selecting %q", key)
	}
	return errors.Wrapf(json.Unmarshal(body, dst), "decoding %q", key)
}

func (s *Store) Put(ctx context.Context, key string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	_, err = s.db.ExecContext(ctx, upsertQuery, key, string(body))
	return errors.Wrapf(err, "upserting %q", key)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, deleteQuery, key)
	return errors.Wrapf(err, "deleting %q", key)
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	if err := s.db.SelectContext(ctx, &keys, listQuery, likeEscaper.Replace(prefix)+"%"); err != nil {
		return nil, errors.Wrap(err, "listing documents")
	}
	return keys, nil
}

func (s *Store) Lock(key string) func() {
	return s.locks.Lock(key)
}
