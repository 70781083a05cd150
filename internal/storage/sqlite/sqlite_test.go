package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrestovio/module10-is601/internal/config"
	"github.com/andrestovio/module10-is601/internal/storage"
	"github.com/andrestovio/module10-is601/internal/storage/sqlstore"
	"github.com/andrestovio/module10-is601/internal/types"
)

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := New(context.Background(), config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "users.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func user(name string) types.User {
	return types.User{
		FirstName:    "First " + name,
		LastName:     "Last " + name,
		Email:        name + "@example.com",
		Username:     name,
		PasswordHash: "$2a$10$hash-for-" + name,
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	created, err := s.CreateUser(ctx, user("ada"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	byID, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)
	assert.Equal(t, "ada@example.com", byID.Email)
	assert.Equal(t, "$2a$10$hash-for-ada", byID.PasswordHash)
	assert.True(t, created.CreatedAt.Equal(byID.CreatedAt))

	byName, err := s.GetUserByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func TestGet_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateUser_Conflict(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.CreateUser(ctx, user("ada"))
	require.NoError(t, err)

	sameEmail := user("ada2")
	sameEmail.Email = "ada@example.com"
	_, err = s.CreateUser(ctx, sameEmail)
	assert.ErrorIs(t, err, storage.ErrConflict)

	sameUsername := user("ada")
	sameUsername.Email = "other@example.com"
	_, err = s.CreateUser(ctx, sameUsername)
	assert.ErrorIs(t, err, storage.ErrConflict)

	upperEmail := user("ada3")
	upperEmail.Email = "ADA@Example.COM"
	_, err = s.CreateUser(ctx, upperEmail)
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestCreateUsers_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	batch := []types.User{user("a1"), user("a2"), user("a1")}
	_, err := s.CreateUsers(ctx, batch)
	require.ErrorIs(t, err, storage.ErrConflict)

	users, err := s.GetUsers(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, users, "a failed batch must not leave partial rows")

	created, err := s.CreateUsers(ctx, []types.User{user("b1"), user("b2"), user("b3")})
	require.NoError(t, err)
	assert.Len(t, created, 3)

	users, err = s.GetUsers(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestGetUsers_Pagination(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	empty, err := s.GetUsers(ctx, 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, n := range []string{"u1", "u2", "u3", "u4", "u5"} {
		_, err := s.CreateUser(ctx, user(n))
		require.NoError(t, err)
	}

	page, err := s.GetUsers(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := s.GetUsers(ctx, 10, 4)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestExistingIdentities(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	mixed := user("y")
	mixed.Email = "Y@Example.com"
	_, err := s.CreateUsers(ctx, []types.User{user("x"), mixed})
	require.NoError(t, err)

	emails, usernames, err := s.ExistingIdentities(ctx)
	require.NoError(t, err)
	assert.Contains(t, emails, "x@example.com")
	assert.Contains(t, emails, "y@example.com")
	assert.Contains(t, usernames, "x")
	assert.Len(t, usernames, 2)
}

func TestUpdateUserByID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	created, err := s.CreateUser(ctx, user("ada"))
	require.NoError(t, err)

	changes := user("ada")
	changes.FirstName = "Augusta"
	changes.PasswordHash = ""
	updated, err := s.UpdateUserByID(ctx, created.ID, changes)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash, "empty hash keeps the stored one")
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	changes.PasswordHash = "$2a$10$new"
	updated, err = s.UpdateUserByID(ctx, created.ID, changes)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$new", updated.PasswordHash)

	_, err = s.UpdateUserByID(ctx, uuid.New(), changes)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateUserByID_Conflict(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.CreateUser(ctx, user("ada"))
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, user("bob"))
	require.NoError(t, err)

	steal := user("bob")
	steal.Email = "ada@example.com"
	_, err = s.UpdateUserByID(ctx, bob.ID, steal)
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestDeleteUserByID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	created, err := s.CreateUser(ctx, user("ada"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteUserByID(ctx, created.ID))
	_, err = s.GetUserByID(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.DeleteUserByID(ctx, created.ID), storage.ErrNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
