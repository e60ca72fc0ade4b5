package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/rewearhq/rewear-backend/internal/api/handlers"
	"github.com/rewearhq/rewear-backend/internal/auth"
	"github.com/rewearhq/rewear-backend/internal/config"
	"github.com/rewearhq/rewear-backend/internal/engine"
	"github.com/rewearhq/rewear-backend/internal/metrics"
	"github.com/rewearhq/rewear-backend/internal/middleware"
	"github.com/rewearhq/rewear-backend/internal/models"
)

func NewRouter(cfg config.Config, eng *engine.Engine, tm *auth.TokenManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	ah := handlers.NewAuthHandler(eng, tm)
	ih := handlers.NewItemHandler(eng)
	sh := handlers.NewSwapHandler(eng)
	rh := handlers.NewRedemptionHandler(eng)
	ph := handlers.NewPointsHandler(eng)
	nh := handlers.NewNotificationHandler(eng)

	authmw := middleware.NewAuthMiddleware(tm)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", ah.Register)
		r.Post("/auth/login", ah.Login)
		r.Post("/auth/refresh", ah.Refresh)

		// public catalog
		r.Get("/items", ih.List)
		r.Get("/items/{id}", ih.Get)

		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth)

			r.Post("/items", ih.Create)
			r.Get("/items/mine", ih.Mine)

			r.Post("/swaps", sh.Create)
			r.Get("/swaps", sh.List)
			r.Get("/swaps/{id}", sh.Get)
			r.Post("/swaps/{id}/respond", sh.Respond)
			r.Post("/swaps/{id}/complete", sh.Complete)
			r.Post("/swaps/{id}/cancel", sh.Cancel)

			r.Post("/redemptions", rh.Create)
			r.Get("/redemptions", rh.List)
			r.Get("/redemptions/{id}", rh.Get)
			r.Post("/redemptions/{id}/respond", rh.Respond)

			r.Get("/points/balance", ph.Balance)
			r.Get("/points/history", ph.History)
			r.Get("/dashboard", ph.Dashboard)

			r.Get("/notifications", nh.List)
			r.Post("/notifications/{id}/read", nh.MarkRead)
			r.Post("/notifications/read-all", nh.MarkAllRead)
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth, middleware.RequireRole(models.RoleAdmin))

			r.Get("/admin/items/pending", ih.PendingQueue)
			r.Post("/admin/items/{id}/moderate", ih.Moderate)
		})
	})

	return r
}
