// Package user contains the HTTP handlers for the User resource.
//
// Every handler is built by a factory that receives its dependencies once at
// startup and returns the http.HandlerFunc the router calls per request:
//
//	r.Post("/api/users", user.New(store, hasher))
package user

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/andrestovio/module10-is601/internal/http/middleware"
	"github.com/andrestovio/module10-is601/internal/metrics"
	"github.com/andrestovio/module10-is601/internal/storage"
	"github.com/andrestovio/module10-is601/internal/types"
	"github.com/andrestovio/module10-is601/internal/utils/response"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// PasswordHasher turns a plain password into its stored form.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

var (
	errInternal     = errors.New("internal server error")
	errInvalidID    = errors.New("invalid id: must be a UUID")
	errForbidden    = errors.New("you may only modify your own account")
	errUnauthorized = errors.New("not authenticated")
)

// New handles POST /api/users: it validates the payload, hashes the
// password and stores the user.
//
//	201 Created   the stored user (never the password)
//	400           empty body, malformed JSON, or failed validation
//	409           email or username already taken
func New(store storage.Storage, hasher PasswordHasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a user")

		var data types.UserData
		if err := response.DecodeJSON(w, r, &data); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		if !validate(w, data) {
			return
		}

		hash, err := hasher.Hash(data.Password)
		if err != nil {
			slog.Error("error hashing password", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errInternal))
			return
		}

		created, err := store.CreateUser(r.Context(), types.User{
			FirstName:    data.FirstName,
			LastName:     data.LastName,
			Email:        types.NormalizeEmail(data.Email),
			Username:     data.Username,
			PasswordHash: hash,
		})
		if err != nil {
			writeStoreError(w, "error creating user", err)
			return
		}

		metrics.UsersCreated.WithLabelValues(metrics.SourceAPI).Inc()
		slog.Info("user created", slog.String("id", created.ID.String()))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetList handles GET /api/users?limit=&offset=. It returns [] rather than
// null when there are no users.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", defaultLimit)
		if err != nil || limit < 1 {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("invalid limit: must be a positive integer")))
			return
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		offset, err := queryInt(r, "offset", 0)
		if err != nil || offset < 0 {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("invalid offset: must be a non-negative integer")))
			return
		}

		slog.Info("listing users", slog.Int("limit", limit), slog.Int("offset", offset))

		users, err := store.GetUsers(r.Context(), limit, offset)
		if err != nil {
			writeStoreError(w, "error listing users", err)
			return
		}
		response.WriteJSON(w, http.StatusOK, users)
	}
}

// GetByID handles GET /api/users/{id}.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a user", slog.String("id", id.String()))

		u, err := store.GetUserByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, "error getting user", err)
			return
		}
		response.WriteJSON(w, http.StatusOK, u)
	}
}

// Me handles GET /api/users/me: the user the bearer token belongs to.
func Me(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := caller(w, r)
		if !ok {
			return
		}

		u, err := store.GetUserByID(r.Context(), callerID)
		if err != nil {
			writeStoreError(w, "error getting current user", err)
			return
		}
		response.WriteJSON(w, http.StatusOK, u)
	}
}

// Update handles PUT /api/users/{id}. Only the account owner may update it.
// Every profile field is replaced; the password only when supplied.
func Update(store storage.Storage, hasher PasswordHasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if !owns(w, r, id) {
			return
		}
		slog.Info("updating a user", slog.String("id", id.String()))

		var upd types.UserUpdate
		if err := response.DecodeJSON(w, r, &upd); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		if !validate(w, upd) {
			return
		}

		changes := types.User{
			FirstName: upd.FirstName,
			LastName:  upd.LastName,
			Email:     types.NormalizeEmail(upd.Email),
			Username:  upd.Username,
		}
		if upd.Password != "" {
			hash, err := hasher.Hash(upd.Password)
			if err != nil {
				slog.Error("error hashing password", slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errInternal))
				return
			}
			changes.PasswordHash = hash
		}

		updated, err := store.UpdateUserByID(r.Context(), id, changes)
		if err != nil {
			writeStoreError(w, "error updating user", err)
			return
		}

		slog.Info("user updated", slog.String("id", id.String()))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /api/users/{id}. Only the account owner may delete it.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if !owns(w, r, id) {
			return
		}
		slog.Info("deleting a user", slog.String("id", id.String()))

		if err := store.DeleteUserByID(r.Context(), id); err != nil {
			writeStoreError(w, "error deleting user", err)
			return
		}

		slog.Info("user deleted", slog.String("id", id.String()))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidID))
		return uuid.Nil, false
	}
	return id, true
}

func caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errUnauthorized))
		return uuid.Nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errUnauthorized))
		return uuid.Nil, false
	}
	return id, true
}

func owns(w http.ResponseWriter, r *http.Request, target uuid.UUID) bool {
	callerID, ok := caller(w, r)
	if !ok {
		return false
	}
	if callerID != target {
		slog.Warn("forbidden modification attempt",
			slog.String("caller", callerID.String()),
			slog.String("target", target.String()))
		response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errForbidden))
		return false
	}
	return true
}

// validate writes a 400 and returns false when v fails its validate tags.
func validate(w http.ResponseWriter, v any) bool {
	err := types.Validate(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
		return false
	}
	slog.Error("validator misuse", slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errInternal))
	return false
}

// writeStoreError maps storage sentinels to status codes. Other errors are
// logged and reported as a bare 500 so driver details never reach clients.
func writeStoreError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(storage.ErrNotFound))
	case errors.Is(err, storage.ErrConflict):
		response.WriteJSON(w, http.StatusConflict, response.GeneralError(storage.ErrConflict))
	default:
		slog.Error(msg, slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errInternal))
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
