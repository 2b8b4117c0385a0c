package database

import (
	"context"
	"embed"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/trezcool/gradebook/core"
)

//go:embed migrations
var migrationsFS embed.FS

// Engines
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

func postgresDSN(conf *core.Config) string {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   Postgres,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func sqliteDSN(conf *core.Config) string {
	q := make(url.Values)
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_time_format", "sqlite")
	return "file:" + conf.Database.Path + "?" + q.Encode()
}

// Open connects to the configured database and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch conf.Database.Engine {
	case SQLite:
		db, err = sqlx.Open("sqlite", sqliteDSN(conf))
		if err == nil {
			// a single writer avoids SQLITE_BUSY under concurrent requests
			db.SetMaxOpenConns(1)
		}
	case Postgres:
		db, err = sqlx.Open("postgres", postgresDSN(conf))
		if err == nil && conf.Database.MaxOpenConns > 0 {
			db.SetMaxOpenConns(conf.Database.MaxOpenConns)
			db.SetMaxIdleConns(conf.Database.MaxOpenConns / 2)
		}
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func gooseDialect(db *sqlx.DB) string {
	if db.DriverName() == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

func migrationsDir(db *sqlx.DB) string {
	if db.DriverName() == Postgres {
		return path.Join("migrations", Postgres)
	}
	return path.Join("migrations", SQLite)
}

func setupGoose(db *sqlx.DB, quiet bool) error {
	goose.SetBaseFS(migrationsFS)
	if quiet {
		goose.SetLogger(goose.NopLogger())
	}
	return errors.Wrap(goose.SetDialect(gooseDialect(db)), "setting migration dialect")
}

// Migrate applies every pending migration. Running it again is a no-op.
func Migrate(ctx context.Context, db *sqlx.DB, quiet bool) error {
	if err := setupGoose(db, quiet); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, migrationsDir(db)); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrations runs any goose command (up, down, status, version, redo, reset...).
func RunMigrations(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	if err := setupGoose(db, false); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db.DB, migrationsDir(db), args...); err != nil {
		return errors.Wrapf(err, "running migrations %s", command)
	}
	return nil
}

// IsUniqueViolation reports whether err was raised by a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	switch e := errors.Cause(err).(type) {
	case *pq.Error:
		return e.Code == "23505"
	case *sqlite.Error:
		switch e.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT: // extended codes disabled
			return strings.Contains(e.Error(), "UNIQUE")
		}
	}
	return false
}
