// Package server assembles the HTTP router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/ayush/library-api/internal/auth"
	"github.com/ayush/library-api/internal/catalog"
	"github.com/ayush/library-api/internal/logging"
	"github.com/ayush/library-api/internal/metrics"
	"github.com/ayush/library-api/internal/middleware"
)

type Deps struct {
	Auth           *auth.Handler
	Catalog        *catalog.Handler
	Authenticator  middleware.Authenticator
	Logger         logrus.FieldLogger
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.RequestLogger(d.Logger))
	r.Use(metrics.InstrumentHandler)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	requireAuth := middleware.RequireAuth(d.Authenticator, d.Logger)

	// Auth routes (public)
	r.Post("/register", d.Auth.Register)
	r.Post("/login", d.Auth.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/logout", d.Auth.Logout)
		r.Get("/member", d.Auth.Me)

		r.Route("/books", func(r chi.Router) {
			r.Post("/", d.Catalog.Create)
			r.Get("/", d.Catalog.List)
			r.Get("/{id}", d.Catalog.Get)
			r.Put("/{id}", d.Catalog.Update)
			r.Patch("/{id}", d.Catalog.Update)
			r.Delete("/{id}", d.Catalog.Delete)
		})
	})

	return r
}
