package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/crucial707/hci-lending/internal/config"
	"github.com/crucial707/hci-lending/internal/handlers"
	"github.com/crucial707/hci-lending/internal/idempotency"
	"github.com/crucial707/hci-lending/internal/lending"
	"github.com/crucial707/hci-lending/internal/middleware"
	"github.com/crucial707/hci-lending/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter wires the lending service and its HTTP surface.
func newRouter(db *sql.DB, svc *lending.Service, cfg config.Config, idem idempotency.Store) http.Handler {
	secret := []byte(cfg.JWTSecret)

	authHandler := &handlers.AuthHandler{
		UserRepo: repo.NewUserRepo(db),
		Secret:   secret,
		TokenTTL: time.Duration(cfg.JWTExpireHours) * time.Hour,
		Timeout:  cfg.StoreTimeout,
	}
	assetHandler := &handlers.AssetHandler{Service: svc}
	scanHandler := &handlers.ScanHandler{Service: svc, Schemes: cfg.QRSchemes}
	loanHandler := &handlers.LoanHandler{Service: svc}
	maintenanceHandler := &handlers.MaintenanceHandler{Service: svc}
	auditHandler := &handlers.AuditHandler{Service: svc}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", handlers.Health(db))
	r.Handle("/metrics", promhttp.Handler())

	r.With(middleware.AuthRateLimiter().Middleware, middleware.MaxBytes(middleware.DefaultMaxBodyBytes)).
		Post("/auth/login", authHandler.Login)

	writes := middleware.WriteRateLimiter()

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(secret))
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

		r.Get("/assets", assetHandler.ListAssets)
		r.Get("/assets/{id}", assetHandler.GetAsset)
		r.Get("/categories/{id}/assets", assetHandler.ListByCategory)

		r.Post("/scan/resolve", scanHandler.Resolve)

		r.Get("/loans", loanHandler.ListLoans)
		r.Get("/loans/{id}", loanHandler.GetLoan)
		r.Get("/maintenance", maintenanceHandler.ListMaintenance)
		r.Get("/audit", auditHandler.ListAudit)

		r.Group(func(r chi.Router) {
			r.Use(writes.Middleware)
			r.Use(middleware.Idempotency(idem, cfg.IdempotencyTTL))

			r.Post("/loans", loanHandler.CreateLoan)
			r.Post("/loans/{id}/return", loanHandler.RegisterReturn)
			r.Post("/maintenance", maintenanceHandler.StartMaintenance)
			r.Post("/maintenance/{id}/complete", maintenanceHandler.CompleteMaintenance)
		})
	})

	return r
}
