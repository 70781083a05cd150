// Package postgres provides the PostgreSQL backend for storage.Storage,
// using the lib/pq driver.
package postgres

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/andrestovio/module10-is601/internal/config"
	"github.com/andrestovio/module10-is601/internal/storage/sqlstore"
)

// uniqueViolation is SQLSTATE 23505.
const uniqueViolation = pq.ErrorCode("23505")

const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id         UUID         PRIMARY KEY,
		first_name VARCHAR(50)  NOT NULL,
		last_name  VARCHAR(50)  NOT NULL,
		email      VARCHAR(120) NOT NULL UNIQUE,
		username   VARCHAR(50)  NOT NULL UNIQUE,
		password   VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ  NOT NULL,
		updated_at TIMESTAMPTZ  NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_key ON users (lower(email));
`

// Dialect is the PostgreSQL flavour of the shared SQL store.
var Dialect = sqlstore.Dialect{
	Name:              "postgres",
	Bindvar:           sqlstore.Dollar,
	Schema:            schema,
	IsUniqueViolation: isUniqueViolation,
}

// New connects to the server described by cfg and creates the users table
// if needed.
func New(ctx context.Context, cfg config.Database) (*sqlstore.Store, error) {
	return sqlstore.Open(ctx, "postgres", cfg.DSN(), Dialect)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
