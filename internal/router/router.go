package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"auctionhouse-api/internal/handler"
	"auctionhouse-api/internal/metrics"
	"auctionhouse-api/internal/middleware"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	AuctionHandler *handler.AuctionHandler
	UserHandler    *handler.UserHandler
	AdminHandler   *handler.AdminHandler
	WSHandler      *handler.WSHandler
	Metrics        *metrics.Metrics
	AllowedOrigins []string

	// RequireAuth rejects anonymous requests; OptionalAuth identifies the
	// caller when a token is present.
	RequireAuth  func(http.Handler) http.Handler
	OptionalAuth func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := passthrough(cfg.RequireAuth)
	optionalAuth := passthrough(cfg.OptionalAuth)

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}
	if cfg.WSHandler != nil {
		r.With(optionalAuth).Get("/ws/auctions/{id}", cfg.WSHandler.Subscribe)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check endpoints
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// Public reads; a token only changes what drafts are visible.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			if cfg.AuctionHandler != nil {
				r.Get("/auctions", cfg.AuctionHandler.List)
				r.Get("/auctions/{id}", cfg.AuctionHandler.Get)
				r.Get("/auctions/{id}/bids", cfg.AuctionHandler.ListBids)
			}
			if cfg.UserHandler != nil {
				r.Get("/users/{id}", cfg.UserHandler.Profile)
			}
		})

		// AUTHENTICATED routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			if cfg.AuctionHandler != nil {
				r.Post("/listings", cfg.AuctionHandler.CreateListing)
				r.Patch("/items/{id}", cfg.AuctionHandler.UpdateItem)
				// Flat paths: /auctions/{id} also has public routes above.
				r.Post("/auctions/{id}/submit", cfg.AuctionHandler.Submit)
				r.Post("/auctions/{id}/bids", cfg.AuctionHandler.PlaceBid)
				r.Post("/auctions/{id}/buy-now", cfg.AuctionHandler.BuyNow)
				r.Put("/auctions/{id}/watch", cfg.AuctionHandler.Watch)
				r.Delete("/auctions/{id}/watch", cfg.AuctionHandler.Unwatch)
			}

			if cfg.UserHandler != nil {
				r.Route("/me", func(r chi.Router) {
					r.Get("/", cfg.UserHandler.Me)
					r.Put("/profile", cfg.UserHandler.UpdateProfile)
					r.Get("/watchlist", cfg.UserHandler.Watchlist)
					r.Get("/listings", cfg.UserHandler.Listings)
					r.Get("/bids", cfg.UserHandler.Bids)
				})
			}

			// Admin endpoints
			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/auctions/pending", cfg.AdminHandler.Pending)
					r.Post("/auctions/{id}/approve", cfg.AdminHandler.Approve)
					r.Post("/auctions/{id}/reject", cfg.AdminHandler.Reject)
					r.Get("/roles/{user_id}", cfg.AdminHandler.ListRoles)
					r.Put("/roles/{user_id}", cfg.AdminHandler.GrantRole)
					r.Delete("/roles/{user_id}/{role}", cfg.AdminHandler.RevokeRole)
					r.Post("/sweep", cfg.AdminHandler.Sweep)
					r.Get("/stats", cfg.AdminHandler.GetStats)
				})
			}
		})
	})

	return r
}

func passthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw != nil {
		return mw
	}
	return func(next http.Handler) http.Handler { return next }
}
