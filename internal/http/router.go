package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authHandler "github.com/MrJamesThe3rd/spendly/internal/http/auth"
	budgetHandler "github.com/MrJamesThe3rd/spendly/internal/http/budget"
	expenseHandler "github.com/MrJamesThe3rd/spendly/internal/http/expense"
	"github.com/MrJamesThe3rd/spendly/internal/http/export"
	feedHandler "github.com/MrJamesThe3rd/spendly/internal/http/feed"
	"github.com/MrJamesThe3rd/spendly/internal/http/importcsv"
	"github.com/MrJamesThe3rd/spendly/internal/http/matching"
	"github.com/MrJamesThe3rd/spendly/internal/http/summary"
)

type Options struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

type Handlers struct {
	Auth      *authHandler.Handler
	Expenses  *expenseHandler.Handler
	Budgets   *budgetHandler.Handler
	Summaries *summary.Handler
	Import    *importcsv.Handler
	Matching  *matching.Handler
	Export    *export.Handler
	Feed      *feedHandler.Handler
}

func New(h Handlers, authn Authenticator, limiter *RateLimiter, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		// The websocket handshake authenticates itself and must not be timed out.
		r.Route("/ws", h.Feed.Routes)

		r.Group(func(r chi.Router) {
			if opts.Timeout > 0 {
				r.Use(middleware.Timeout(opts.Timeout))
			}

			r.Route("/auth", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(limiter.Middleware)
					r.Use(middleware.AllowContentType("application/json"))
					h.Auth.PublicRoutes(r)
				})

				r.Group(func(r chi.Router) {
					r.Use(RequireUser(authn))
					h.Auth.Routes(r)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireUser(authn))

				r.Route("/expenses", func(r chi.Router) {
					r.Use(middleware.AllowContentType("application/json"))
					h.Expenses.Routes(r)
				})

				r.Route("/budgets", func(r chi.Router) {
					r.Use(middleware.AllowContentType("application/json"))
					h.Budgets.Routes(r)
				})

				r.Route("/summaries", h.Summaries.Routes)
				r.Route("/import", h.Import.Routes)
				r.Route("/matching", h.Matching.Routes)
				r.Route("/export", h.Export.Routes)
			})
		})
	})

	return router
}
