package database

import (
	"context"
	"embed"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/gakuseki/gakuseki/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sqlx.Open(conf.Database.Engine, u.String())
}

func Open(conf *core.Config) (*sqlx.DB, error) {
	return open(conf.Database.Name, false, conf)
}

// OpenURL opens the database at a postgres:// connection URL.
func OpenURL(dsn string) (*sqlx.DB, error) {
	return sqlx.Open("postgres", dsn)
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping canceled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func createAppUser(ctx context.Context, db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	var exists bool
	if err := db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", conf.Database.User); err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !exists {
		q := "CREATE USER " + pq.QuoteIdentifier(conf.Database.User) + " CREATEDB ENCRYPTED PASSWORD " + pq.QuoteLiteral(conf.Database.Password)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(ctx context.Context, db *sqlx.DB, conf *core.Config) error {
	var exists bool
	if err := db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name); err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the application role and database, connecting as the admin user.
func CreateIfNotExist(ctx context.Context, conf *core.Config) error {
	db, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = Ping(ctx, db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(ctx, db, conf); err != nil {
		return err
	}

	// create DB as app user
	appDB, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = appDB.Close() }()
	return createDB(ctx, appDB, conf)
}

// Migrate runs a goose command ("up", "down", "status", "redo"...) with the embedded migrations.
func Migrate(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.RunContext(ctx, command, db.DB, "migrations", args...); err != nil {
		return errors.Wrapf(err, "migrating database (%s)", command)
	}
	return nil
}
