package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/andrestovio/module10-is601/internal/metrics"
	"github.com/andrestovio/module10-is601/internal/storage"
	"github.com/andrestovio/module10-is601/internal/types"
)

// ErrInvalidCount is returned for a seed count below one.
var ErrInvalidCount = errors.New("seed: count must be at least 1")

// PasswordHasher turns a plain password into its stored form.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Seeder inserts batches of generated users.
type Seeder struct {
	store  storage.Storage
	hasher PasswordHasher
	gen    *Generator
	log    *slog.Logger
}

// New returns a Seeder writing to store.
func New(store storage.Storage, hasher PasswordHasher, gen *Generator, log *slog.Logger) *Seeder {
	return &Seeder{store: store, hasher: hasher, gen: gen, log: log}
}

// Seed generates count users, hashes their passwords and inserts them in a
// single transaction. Nothing is written unless every user succeeds.
func (s *Seeder) Seed(ctx context.Context, count int) ([]types.User, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}

	s.log.Info("fetching existing emails and usernames to prevent duplicates")
	emails, usernames, err := s.store.ExistingIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	s.log.Info("existing identities loaded",
		slog.Int("emails", len(emails)),
		slog.Int("usernames", len(usernames)))

	batch := make([]types.User, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := s.gen.Generate(emails, usernames)
		if err != nil {
			return nil, err
		}
		if err := types.Validate(data); err != nil {
			return nil, fmt.Errorf("seed: validation error for user %d: %w", i, err)
		}

		hash, err := s.hasher.Hash(data.Password)
		if err != nil {
			return nil, fmt.Errorf("seed: user %d: %w", i, err)
		}

		batch = append(batch, types.User{
			FirstName:    data.FirstName,
			LastName:     data.LastName,
			Email:        data.Email,
			Username:     data.Username,
			PasswordHash: hash,
		})
		s.log.Debug("user generated", slog.Int("n", i), slog.String("username", data.Username))
	}

	s.log.Info("committing users", slog.Int("count", len(batch)))
	created, err := s.store.CreateUsers(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("seed: %s: %w", classify(err), err)
	}

	metrics.UsersCreated.WithLabelValues(metrics.SourceSeed).Add(float64(len(created)))
	s.log.Info("users seeded", slog.Int("count", len(created)))
	return created, nil
}

func classify(err error) string {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, storage.ErrConflict):
		return "integrity error"
	case errors.As(err, &verrs):
		return "validation error"
	default:
		return "unexpected error"
	}
}
