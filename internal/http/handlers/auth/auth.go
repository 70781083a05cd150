// Package auth contains the login handler that exchanges credentials for a
// bearer token.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/andrestovio/module10-is601/internal/metrics"
	"github.com/andrestovio/module10-is601/internal/security"
	"github.com/andrestovio/module10-is601/internal/storage"
	"github.com/andrestovio/module10-is601/internal/types"
	"github.com/andrestovio/module10-is601/internal/utils/response"
)

// Credentials hashes and verifies passwords.
type Credentials interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(u types.User) (string, time.Time, error)
}

var errBadCredentials = errors.New("invalid username or password")

// Login handles POST /api/auth/login.
//
//	200 OK   {"access_token": "...", "token_type": "Bearer", "expires_at": "..."}
//	400      empty or malformed body
//	401      unknown user or wrong password (indistinguishable)
func Login(store storage.Storage, creds Credentials, tokens TokenIssuer) http.HandlerFunc {
	// Unknown usernames still pay for one bcrypt comparison so response
	// timing does not reveal which accounts exist.
	dummyHash, err := creds.Hash("login-timing-placeholder")
	if err != nil {
		slog.Error("cannot prepare login placeholder hash", slog.String("error", err.Error()))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoginRequest
		if err := response.DecodeJSON(w, r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		if err := types.Validate(req); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		u, err := store.GetUserByUsername(r.Context(), req.Username)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			_ = creds.Verify(dummyHash, req.Password)
			reject(w, req.Username, "unknown user")
			return
		case err != nil:
			slog.Error("error loading user for login", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(errors.New("internal server error")))
			return
		}

		if err := creds.Verify(u.PasswordHash, req.Password); err != nil {
			if !errors.Is(err, security.ErrMismatch) {
				slog.Error("error verifying password", slog.String("error", err.Error()))
			}
			reject(w, req.Username, "wrong password")
			return
		}

		token, expires, err := tokens.Issue(u)
		if err != nil {
			slog.Error("error issuing token", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(errors.New("internal server error")))
			return
		}

		metrics.LoginAttempts.WithLabelValues(metrics.LoginSuccess).Inc()
		slog.Info("user logged in", slog.String("id", u.ID.String()))
		response.WriteJSON(w, http.StatusOK, types.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   expires,
		})
	}
}

func reject(w http.ResponseWriter, username, reason string) {
	metrics.LoginAttempts.WithLabelValues(metrics.LoginFailure).Inc()
	slog.Info("login rejected", slog.String("username", username), slog.String("reason", reason))
	w.Header().Set("WWW-Authenticate", `Bearer realm="users-api"`)
	response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errBadCredentials))
}
