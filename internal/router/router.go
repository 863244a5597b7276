// Package router sets up all HTTP routes and middleware chains of the
// Asli Politik API. Routes are organised into a public group and an admin
// group with its own authentication and CSRF middleware.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"aslipolitik/internal/handlers"
	"aslipolitik/internal/metrics"
	"aslipolitik/internal/middleware"
	"aslipolitik/internal/session"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Sessions *session.Store
	// Guard serialises state-changing admin requests per session; GuardBusy
	// is the error it returns while a lock is held.
	Guard     middleware.Locker
	GuardBusy error
	// SubscribeLimiter throttles newsletter subscriptions per client IP.
	SubscribeLimiter *middleware.RateLimiter

	CORSOrigins []string
	Secure      bool // HTTPS deployment: HSTS and Secure cookies

	Public *handlers.Public
	Admin  *handlers.Admin
	Auth   *handlers.Auth
}

// New creates the configured Chi router.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(d.Secure))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.CSRFHeaderName, handlers.ViewHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", d.Public.Categories)
		r.Get("/categories/{code}/posts", d.Public.CategoryPosts)
		r.Get("/posts", d.Public.ListPosts)
		r.Get("/posts/{slug}", d.Public.Post)
		r.Get("/search", d.Public.Search)
		r.Get("/views/{view}", d.Public.ViewSnapshot)
		r.Get("/preferences", d.Public.Preferences)
		r.Post("/preferences/{action}", d.Public.UpdatePreference)

		r.Group(func(r chi.Router) {
			if d.SubscribeLimiter != nil {
				r.Use(d.SubscribeLimiter.Middleware)
			}
			r.Post("/subscribe", d.Public.Subscribe)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.CSRF(d.Secure))
			r.Use(middleware.LoadSession(d.Sessions))

			r.Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)

			// Signed in, second factor pending.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/me", d.Auth.Me)
				r.Get("/2fa/setup", d.Auth.TwoFASetup)
				r.Post("/2fa/verify", d.Auth.TwoFAVerify)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.Require2FA)
				r.Use(middleware.RequirePostManager)
				if d.Guard != nil {
					r.Use(middleware.OneMutationAtATime(d.Guard, d.GuardBusy))
				}

				r.Get("/posts", d.Admin.ListPosts)
				r.Post("/posts", d.Admin.CreatePost)
				r.Put("/posts/{id}", d.Admin.UpdatePost)
				r.Delete("/posts/{id}", d.Admin.DeletePost)
				r.Post("/uploads", d.Admin.UploadImage)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
