package sqlstore

import "github.com/jmoiron/sqlx"

// Bindvar is the placeholder style a driver expects. Values are sqlx bind
// types so they can be handed to sqlx.Rebind directly.
type Bindvar int

const (
	// Question is the "?" style used by SQLite.
	Question Bindvar = sqlx.QUESTION
	// Dollar is the "$1, $2" style used by PostgreSQL.
	Dollar Bindvar = sqlx.DOLLAR
)

// Dialect captures everything that differs between SQL backends.
type Dialect struct {
	Name    string
	Bindvar Bindvar

	// Schema is executed on open. It must be idempotent.
	Schema string

	// IsUniqueViolation reports whether err came from a UNIQUE constraint.
	IsUniqueViolation func(err error) bool
}

// Rebind rewrites "?" placeholders in q to the dialect's style. Queries in
// this package never contain literal question marks.
func (d Dialect) Rebind(q string) string {
	return sqlx.Rebind(int(d.Bindvar), q)
}
