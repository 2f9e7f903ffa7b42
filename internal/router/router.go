package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"gnosislens-api/internal/handler"
	"gnosislens-api/internal/middleware"
	"gnosislens-api/pkg/apierror"
	"gnosislens-api/pkg/response"
)

// Config holds the configuration for creating a router. Nil handlers are
// not mounted.
type Config struct {
	Log            zerolog.Logger
	AllowedOrigins []string

	Handler          *handler.Handler
	ScamCheckHandler *handler.ScamCheckHandler
	AnalyticsHandler *handler.AnalyticsHandler
	PersonaHandler   *handler.PersonaHandler
	RatesHandler     *handler.RatesHandler
	AuthHandler      *handler.AuthHandler
	AdminHandler     *handler.AdminHandler
	AuthMiddleware   func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.NewRequestID(cfg.Log))
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token", "X-Admin-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, apierror.NotFound("Route not found"))
	})

	authenticated := cfg.AuthMiddleware
	if authenticated == nil {
		authenticated = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api", func(r chi.Router) {
		// PUBLIC routes
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
			r.Get("/status", cfg.Handler.Status)
		}
		if cfg.AnalyticsHandler != nil {
			r.Get("/market-prices/{country}", cfg.AnalyticsHandler.MarketPrices)
			r.Get("/price-stats/{country}/{item}", cfg.AnalyticsHandler.PriceStatistics)
			r.Get("/global-stats", cfg.AnalyticsHandler.GlobalStats)
		}
		if cfg.PersonaHandler != nil {
			r.Get("/personas", cfg.PersonaHandler.List)
		}
		if cfg.RatesHandler != nil {
			r.Get("/rates", cfg.RatesHandler.Rates)
		}
		if cfg.AuthHandler != nil {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/logout", cfg.AuthHandler.Logout)
		}
		if cfg.AdminHandler != nil {
			r.Get("/admin/stats", cfg.AdminHandler.GetStats)
		}

		// AUTHENTICATED routes
		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			if cfg.ScamCheckHandler != nil {
				r.Post("/scam-check", cfg.ScamCheckHandler.Check)
			}
			if cfg.AnalyticsHandler != nil {
				r.Get("/user/analytics", cfg.AnalyticsHandler.UserAnalytics)
				r.Get("/user/history", cfg.AnalyticsHandler.History)
			}
			if cfg.PersonaHandler != nil {
				r.Post("/chat", cfg.PersonaHandler.Chat)
			}
			// Served without an account store too, for anonymous sessions.
			r.Get("/user", cfg.AuthHandler.User)
		})
	})

	return r
}
