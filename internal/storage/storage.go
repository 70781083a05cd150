// Package storage defines the Storage interface: the contract any database
// backend must satisfy to work with this application.
//
// Handlers and the seeder depend only on this interface, so the SQLite and
// PostgreSQL backends are interchangeable and tests can run against a
// throwaway SQLite file.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/andrestovio/module10-is601/internal/types"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrConflict is returned when an insert or update violates the unique
	// email or username constraint.
	ErrConflict = errors.New("email or username already exists")
)

// Storage is the database contract.
type Storage interface {
	// CreateUser inserts u, assigning its ID and timestamps, and returns the
	// stored record.
	CreateUser(ctx context.Context, u types.User) (types.User, error)

	// CreateUsers inserts every user in a single transaction. Either all
	// rows are committed or none are.
	CreateUsers(ctx context.Context, users []types.User) ([]types.User, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (types.User, error)
	GetUserByUsername(ctx context.Context, username string) (types.User, error)

	// GetUsers returns a page of users ordered by creation time. It returns
	// an empty slice (not nil) when there are none.
	GetUsers(ctx context.Context, limit, offset int) ([]types.User, error)

	// ExistingIdentities returns the sets of emails and usernames already
	// taken. Emails are lowercased since their uniqueness ignores case.
	ExistingIdentities(ctx context.Context) (emails, usernames map[string]struct{}, err error)

	// UpdateUserByID replaces the profile fields (and the password hash when
	// non-empty) and bumps updated_at.
	UpdateUserByID(ctx context.Context, id uuid.UUID, u types.User) (types.User, error)

	DeleteUserByID(ctx context.Context, id uuid.UUID) error

	Close() error
}
