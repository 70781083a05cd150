// Package security holds the credential primitives: peppered bcrypt
// password hashing and HS256 access tokens.
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned by Verify when the password does not match.
var ErrMismatch = errors.New("password does not match")

// Hasher hashes passwords with bcrypt after mixing in an application-wide
// pepper that never touches the database.
//
// The pepper is applied as HMAC-SHA256(pepper, password) and base64-encoded
// before bcrypt sees it. That keeps the input at a fixed 44 bytes, below
// bcrypt's 72-byte limit, whatever the pepper and password lengths.
type Hasher struct {
	pepper []byte
	cost   int
}

// NewHasher returns a Hasher using pepper and bcrypt.DefaultCost.
func NewHasher(pepper string) (*Hasher, error) {
	return NewHasherWithCost(pepper, bcrypt.DefaultCost)
}

// NewHasherWithCost is NewHasher with an explicit bcrypt cost. Tests use
// bcrypt.MinCost to stay fast.
func NewHasherWithCost(pepper string, cost int) (*Hasher, error) {
	if pepper == "" {
		return nil, errors.New("security: pepper must not be empty")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("security: bcrypt cost %d out of range", cost)
	}
	return &Hasher{pepper: []byte(pepper), cost: cost}, nil
}

// Hash returns the bcrypt hash of the peppered password.
func (h *Hasher) Hash(plain string) (string, error) {
	out, err := bcrypt.GenerateFromPassword(h.peppered(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(out), nil
}

// Verify compares plain against a hash produced by Hash.
func (h *Hasher) Verify(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), h.peppered(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	return nil
}

func (h *Hasher) peppered(plain string) []byte {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(plain))
	sum := mac.Sum(nil)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum)
	return out
}
