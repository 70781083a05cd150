// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, seeding and utils can all import types without
// depending on each other.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a row of the users table.
//
// PasswordHash carries json:"-" so a bcrypt hash can never leak through
// an API response, no matter which handler encodes the struct.
type User struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u User) String() string {
	return fmt.Sprintf("<User(name=%s %s, email=%s)>", u.FirstName, u.LastName, u.Email)
}

// NormalizeEmail trims surrounding space and lowercases the domain part.
// The local part is kept as typed; uniqueness of the whole address is
// case-insensitive at the database level.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// UserData is the validated input for creating a user. Password is plain
// text and is hashed before it reaches storage.
type UserData struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name"  validate:"required,max=50"`
	Email     string `json:"email"      validate:"required,email,max=120"`
	Username  string `json:"username"   validate:"required,min=3,max=50,username"`
	Password  string `json:"password"   validate:"required,min=8,max=128"`
}

// UserUpdate replaces every profile field of an existing user. Password is
// optional; when set it is re-hashed.
type UserUpdate struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name"  validate:"required,max=50"`
	Email     string `json:"email"      validate:"required,email,max=120"`
	Username  string `json:"username"   validate:"required,min=3,max=50,username"`
	Password  string `json:"password"   validate:"omitempty,min=8,max=128"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
