package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/andrestovio/module10-is601/internal/types"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestHasher_RoundTrip(t *testing.T) {
	h, err := NewHasherWithCost("pepper", bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("correct-horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"), hash)
	assert.NotContains(t, hash, "correct-horse")

	assert.NoError(t, h.Verify(hash, "correct-horse"))
	assert.ErrorIs(t, h.Verify(hash, "wrong-horse"), ErrMismatch)
}

func TestHasher_PepperMatters(t *testing.T) {
	a, err := NewHasherWithCost("pepper-a", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := NewHasherWithCost("pepper-b", bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := a.Hash("same-password")
	require.NoError(t, err)
	assert.ErrorIs(t, b.Verify(hash, "same-password"), ErrMismatch)
}

func TestHasher_LongInputsStayUnderBcryptLimit(t *testing.T) {
	h, err := NewHasherWithCost(strings.Repeat("p", 200), bcrypt.MinCost)
	require.NoError(t, err)

	long := strings.Repeat("x", 128)
	hash, err := h.Hash(long)
	require.NoError(t, err)
	assert.NoError(t, h.Verify(hash, long))
	// A prefix sharing the first 72 bytes must not verify.
	assert.ErrorIs(t, h.Verify(hash, long[:100]), ErrMismatch)
}

func TestHasher_Errors(t *testing.T) {
	_, err := NewHasher("")
	assert.Error(t, err)

	_, err = NewHasherWithCost("p", bcrypt.MaxCost+1)
	assert.Error(t, err)

	h, err := NewHasherWithCost("p", bcrypt.MinCost)
	require.NoError(t, err)
	err = h.Verify("not-a-bcrypt-hash", "x")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

func newIssuer(t *testing.T, now time.Time) *TokenIssuer {
	t.Helper()
	iss, err := NewTokenIssuer(testSecret, "users-api", time.Hour)
	require.NoError(t, err)
	iss.now = func() time.Time { return now }
	return iss
}

func TestTokenIssuer_IssueParse(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	iss := newIssuer(t, now)
	u := types.User{ID: uuid.New(), Username: "ada"}

	tok, exp, err := iss.Issue(u)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, "users-api", claims.Issuer)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	iss := newIssuer(t, now)
	u := types.User{ID: uuid.New(), Username: "ada"}
	tok, _, err := iss.Issue(u)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newIssuer(t, now.Add(2*time.Hour))
		_, err := later.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenIssuer(strings.Repeat("z", 32), "users-api", time.Hour)
		require.NoError(t, err)
		other.now = func() time.Time { return now }
		_, err = other.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewTokenIssuer(testSecret, "someone-else", time.Hour)
		require.NoError(t, err)
		other.now = func() time.Time { return now }
		_, err = other.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   u.ID.String(),
				Issuer:    "users-api",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = iss.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Parse("a.b.c")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenIssuer_Errors(t *testing.T) {
	_, err := NewTokenIssuer("", "x", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenIssuer(testSecret, "x", 0)
	assert.Error(t, err)
}
