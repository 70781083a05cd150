// Package sqlstore implements storage.Storage on top of database/sql.
//
// The SQL is written once with "?" placeholders; a Dialect supplies the
// schema, the placeholder style and the unique-violation detector for each
// backend. Every query lists its columns explicitly so Scan ordering never
// depends on the table layout.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andrestovio/module10-is601/internal/storage"
	"github.com/andrestovio/module10-is601/internal/types"
)

const userColumns = "id, first_name, last_name, email, username, password, created_at, updated_at"

// Store is the concrete implementation of storage.Storage.
// It holds a *sql.DB, which is a connection pool safe for concurrent use.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ storage.Storage = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Open connects with driverName/dsn, verifies the connection and creates
// the users table if it does not exist yet.
func Open(ctx context.Context, driverName, dsn string, dialect Dialect) (*Store, error) {
	// sql.Open only validates its arguments; PingContext makes the first
	// real connection so a bad DSN fails here rather than on first query.
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open db: %w", dialect.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping db: %w", dialect.Name, err)
	}

	s := New(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened pool. The caller is responsible for Migrate.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Migrate runs the dialect schema. CREATE TABLE IF NOT EXISTS makes it safe
// to call on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Schema); err != nil {
		return fmt.Errorf("%s: create schema: %w", s.dialect.Name, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// CreateUser inserts u and returns it with its ID and timestamps set.
// A duplicate email or username yields storage.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u types.User) (types.User, error) {
	out, err := s.insert(ctx, s.db, u)
	if err != nil {
		return types.User{}, fmt.Errorf("CreateUser: %w", err)
	}
	return out, nil
}

// CreateUsers inserts all users inside one transaction using a single
// prepared statement. Any failure rolls the whole batch back.
func (s *Store) CreateUsers(ctx context.Context, users []types.User) ([]types.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateUsers: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op returning ErrTxDone.
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.dialect.Rebind(insertQuery))
	if err != nil {
		return nil, fmt.Errorf("CreateUsers: prepare: %w", err)
	}
	defer stmt.Close()

	out := make([]types.User, 0, len(users))
	for i, u := range users {
		u = s.stamp(u)
		if _, err := stmt.ExecContext(ctx, insertArgs(u)...); err != nil {
			return nil, fmt.Errorf("CreateUsers: row %d (%s): %w", i, u.Username, s.mapErr(err))
		}
		out = append(out, u)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateUsers: commit: %w", s.mapErr(err))
	}
	return out, nil
}

// GetUserByID returns storage.ErrNotFound when no row has that id.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.Rebind("SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1"), id)
	u, err := scanUser(row)
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByID %s: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername looks a user up by exact username, as login does.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (types.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.Rebind("SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1"), username)
	u, err := scanUser(row)
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByUsername %q: %w", username, err)
	}
	return u, nil
}

// GetUsers returns one page of users ordered by creation time.
func (s *Store) GetUsers(ctx context.Context, limit, offset int) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind("SELECT "+userColumns+" FROM users ORDER BY created_at, id LIMIT ? OFFSET ?"),
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("GetUsers: query: %w", err)
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("GetUsers: scan row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetUsers: rows iteration: %w", err)
	}
	return users, nil
}

// ExistingIdentities loads every taken email (lowercased) and username.
func (s *Store) ExistingIdentities(ctx context.Context) (map[string]struct{}, map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT email, username FROM users")
	if err != nil {
		return nil, nil, fmt.Errorf("ExistingIdentities: query: %w", err)
	}
	defer rows.Close()

	emails := make(map[string]struct{})
	usernames := make(map[string]struct{})
	for rows.Next() {
		var email, username string
		if err := rows.Scan(&email, &username); err != nil {
			return nil, nil, fmt.Errorf("ExistingIdentities: scan row: %w", err)
		}
		emails[strings.ToLower(email)] = struct{}{}
		usernames[username] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("ExistingIdentities: rows iteration: %w", err)
	}
	return emails, usernames, nil
}

// UpdateUserByID replaces the profile fields of the user with id and
// returns the stored row.
func (s *Store) UpdateUserByID(ctx context.Context, id uuid.UUID, u types.User) (types.User, error) {
	// An empty hash keeps the stored one.
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(`
		UPDATE users
		SET first_name = ?, last_name = ?, email = ?, username = ?,
		    password = COALESCE(NULLIF(CAST(? AS TEXT), ''), password), updated_at = ?
		WHERE id = ?`),
		u.FirstName, u.LastName, u.Email, u.Username, u.PasswordHash, s.now(), id)
	if err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID %s: %w", id, s.mapErr(err))
	}
	if err := expectOneRow(res); err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID %s: %w", id, err)
	}

	// Re-fetch so the caller sees exactly what is stored.
	return s.GetUserByID(ctx, id)
}

// DeleteUserByID removes the user with id, or returns storage.ErrNotFound.
func (s *Store) DeleteUserByID(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("DeleteUserByID %s: %w", id, err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("DeleteUserByID %s: %w", id, err)
	}
	return nil
}

const insertQuery = "INSERT INTO users (" + userColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)"

func (s *Store) insert(ctx context.Context, q querier, u types.User) (types.User, error) {
	u = s.stamp(u)
	if _, err := q.ExecContext(ctx, s.dialect.Rebind(insertQuery), insertArgs(u)...); err != nil {
		return types.User{}, s.mapErr(err)
	}
	return u, nil
}

// stamp assigns a fresh UUIDv4 when missing and sets both timestamps.
func (s *Store) stamp(u types.User) types.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := s.now()
	u.CreatedAt = now
	u.UpdatedAt = now
	return u
}

func insertArgs(u types.User) []any {
	return []any{u.ID, u.FirstName, u.LastName, u.Email, u.Username, u.PasswordHash, u.CreatedAt, u.UpdatedAt}
}

func (s *Store) mapErr(err error) error {
	if s.dialect.IsUniqueViolation != nil && s.dialect.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", storage.ErrConflict, err)
	}
	return err
}

func scanUser(row rowScanner) (types.User, error) {
	var u types.User
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, storage.ErrNotFound
	}
	if err != nil {
		return types.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
