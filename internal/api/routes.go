package api

import (
	"log"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/signalweekly/newsletter/internal/auth"
)

// SetupRoutes configures the HTTP surface. authManager may be nil when auth
// is disabled (local development); the admin routes are then left open and
// a warning is logged at boot.
func SetupRoutes(h *Handlers, authManager *auth.Manager, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// Credentials allowed so the admin session cookie travels with
	// dashboard requests from the front-end origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	} else {
		log.Println("[api] auth disabled: admin endpoints are unprotected")
	}

	r.Route("/api", func(r chi.Router) {
		// Public signup surface: hero form and chat widget.
		r.Post("/newsletter/subscribe", h.HandleSubscribe)

		r.Route("/wizard/sessions", func(r chi.Router) {
			r.Post("/", h.HandleOpenWizard)
			r.Get("/{id}", h.HandleGetWizard)
			r.Post("/{id}/messages", h.HandleWizardMessage)
			r.Delete("/{id}", h.HandleCloseWizard)
		})

		// Admin surface: the role check runs before any store access.
		r.Group(func(r chi.Router) {
			if authManager != nil {
				r.Use(authManager.RequireAdmin)
			}
			r.Get("/newsletter/stats", h.HandleStats)
			r.Get("/newsletter/subscribers", h.HandleListSubscribers)
			r.Get("/newsletter/subscribers/export", h.HandleExportSubscribers)
			r.Delete("/newsletter/subscribers/{email}", h.HandleDeleteSubscriber)
		})
	})

	return r
}
