// Package router wires handlers and middleware into a chi router.
//
// Route table:
//
//	POST   /api/users          register (public)
//	POST   /api/auth/login     obtain a bearer token (public, rate limited)
//	GET    /api/users          list users
//	GET    /api/users/me       the authenticated user
//	GET    /api/users/{id}     one user
//	PUT    /api/users/{id}     update own account
//	DELETE /api/users/{id}     delete own account
//	GET    /healthz            liveness
//	GET    /metrics            Prometheus exposition
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrestovio/module10-is601/internal/http/handlers/auth"
	"github.com/andrestovio/module10-is601/internal/http/handlers/user"
	"github.com/andrestovio/module10-is601/internal/http/middleware"
	"github.com/andrestovio/module10-is601/internal/storage"
	"github.com/andrestovio/module10-is601/internal/utils/response"
)

// Credentials is what both registration and login need from the hasher.
type Credentials interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

// Tokens issues and verifies bearer tokens.
type Tokens interface {
	auth.TokenIssuer
	middleware.TokenParser
}

// Deps are the collaborators the routes close over.
type Deps struct {
	Store       storage.Storage
	Credentials Credentials
	Tokens      Tokens
	Log         *slog.Logger

	// LoginRateLimit is the number of login attempts allowed per IP per
	// LoginWindow.
	LoginRateLimit int
	LoginWindow    time.Duration
}

// New builds the application router.
func New(d Deps) *chi.Mux {
	if d.LoginWindow <= 0 {
		d.LoginWindow = time.Minute
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(middleware.Observe(d.Log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.Response{Status: response.StatusOK})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", user.New(d.Store, d.Credentials))

		r.With(middleware.LoginRateLimit(d.LoginRateLimit, d.LoginWindow)).
			Post("/auth/login", auth.Login(d.Store, d.Credentials, d.Tokens))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(d.Tokens))

			r.Get("/users", user.GetList(d.Store))
			r.Get("/users/me", user.Me(d.Store))
			r.Get("/users/{id}", user.GetByID(d.Store))
			r.Put("/users/{id}", user.Update(d.Store, d.Credentials))
			r.Delete("/users/{id}", user.Delete(d.Store))
		})
	})

	return r
}
