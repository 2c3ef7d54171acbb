// Package storage opens the document store selected by the configuration.
package storage

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/storage/database"
	"github.com/gakuseki/gakuseki/storage/database/filedb"
	"github.com/gakuseki/gakuseki/storage/database/redisdb"
	sqlxdb "github.com/gakuseki/gakuseki/storage/database/sqlx"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the store of conf.Storage.Driver and the closer releasing its connections.
// The postgres database is created and migrated up first.
func Open(ctx context.Context, conf *core.Config) (core.Store, io.Closer, error) {
	switch conf.Storage.Driver {
	case core.StoragePostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening database")
		}
		if err = database.Migrate(ctx, db, "up"); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlxdb.New(db), db, nil

	case core.StorageRedis:
		store, err := redisdb.Open(ctx, conf.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	case core.StorageFile, "":
		store, err := filedb.Open(conf.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	}
	return nil, nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
}
