// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chains of the
// notes API.
package router

import (
	"github.com/go-chi/chi/v5"

	"notea/internal/handlers"
	"notea/internal/middleware"
)

// Deps bundles what the router wires together.
type Deps struct {
	Sessions     middleware.SessionLoader
	LoginLimiter *middleware.RateLimiter // optional
	SecureCookie bool

	Health     *handlers.Health
	Auth       *handlers.Auth
	Categories *handlers.Categories
	Notes      *handlers.Notes
}

// New creates the configured Chi router.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	// Health check: no auth, no CSRF.
	r.Get("/health", d.Health.Check)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(d.SecureCookie))

		// Accessible without a session.
		r.Get("/csrf", d.Auth.CSRF)
		r.Post("/signup", d.Auth.Signup)
		r.Group(func(r chi.Router) {
			if d.LoginLimiter != nil {
				r.Use(d.LoginLimiter.Middleware)
			}
			r.Post("/login", d.Auth.Login)
		})
		r.Post("/logout", d.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/me", d.Auth.Me)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", d.Categories.List)
				r.Post("/", d.Categories.Create)
				r.Post("/reorder", d.Categories.Reorder)
				r.Post("/drag", d.Categories.Drag)
				r.Patch("/{id}", d.Categories.Rename)
				r.Delete("/{id}", d.Categories.Delete)
				r.Post("/{id}/activate", d.Categories.Activate)
				r.Post("/{id}/toggle", d.Categories.Toggle)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", d.Notes.List)
				r.Post("/", d.Notes.Create)
				r.Get("/{id}", d.Notes.Get)
				r.Put("/{id}", d.Notes.Update)
				r.Delete("/{id}", d.Notes.Delete)
				r.Patch("/{id}/category", d.Notes.ChangeCategory)
			})
		})
	})

	return r
}
