package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/middleware"
)

// NewRouter constructs the browser UI handler.
//
// Routes:
//
//	GET  /                     → login page or main page
//	POST /login, /logout       → session actions
//	POST /items                → add form
//	GET  /items/{id}/edit      → edit form;   POST submits it
//	GET  /items/{id}/delete    → confirmation; POST submits it
//	POST /items/{id}/history   → open the history overlay
//	POST /history/close        → close it
//	GET  /healthz              → liveness
//
// Everything but /, /login and /healthz requires a session. Posts coming
// from another origin are answered with 403.
func NewRouter(pages *PageHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/healthz", pages.Health)
	r.Get("/", pages.Index)

	r.Group(func(r chi.Router) {
		// Form posts from other sites are refused
		r.Use(middleware.SameOrigin())
		// Only HTML forms are accepted on the action routes
		r.Use(chiMiddleware.AllowContentType("application/x-www-form-urlencoded"))
		r.Post("/login", pages.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(pages.SignedIn))

			r.Post("/logout", pages.Logout)
			r.Post("/items", pages.AddItem)
			r.Route("/items/{id}", func(r chi.Router) {
				r.Get("/edit", pages.EditForm)
				r.Post("/edit", pages.EditItem)
				r.Get("/delete", pages.DeleteForm)
				r.Post("/delete", pages.DeleteItem)
				r.Post("/history", pages.ShowHistory)
			})
			r.Post("/history/close", pages.CloseHistory)
		})
	})

	return r
}
