// Package sqlite provides the SQLite backend for storage.Storage.
//
// SQLite keeps everything in a single file on disk with no server process,
// which makes it the default for local development and for tests.
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql.
// Its typed errors are used to detect UNIQUE violations.
package sqlite

import (
	"context"
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/andrestovio/module10-is601/internal/config"
	"github.com/andrestovio/module10-is601/internal/storage/sqlstore"
)

const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id         TEXT         PRIMARY KEY,
		first_name VARCHAR(50)  NOT NULL,
		last_name  VARCHAR(50)  NOT NULL,
		email      VARCHAR(120) NOT NULL UNIQUE,
		username   VARCHAR(50)  NOT NULL UNIQUE,
		password   VARCHAR(255) NOT NULL,
		created_at TIMESTAMP    NOT NULL,
		updated_at TIMESTAMP    NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_key ON users (lower(email));
`

// Dialect is the SQLite flavour of the shared SQL store.
var Dialect = sqlstore.Dialect{
	Name:              "sqlite",
	Bindvar:           sqlstore.Question,
	Schema:            schema,
	IsUniqueViolation: isUniqueViolation,
}

// New opens the SQLite database described by cfg and creates the users
// table if it does not already exist.
func New(ctx context.Context, cfg config.Database) (*sqlstore.Store, error) {
	return Open(ctx, cfg.DSN())
}

// Open is New for a raw DSN such as "file:/tmp/x.db?_busy_timeout=5000".
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	return sqlstore.Open(ctx, "sqlite3", dsn, Dialect)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
