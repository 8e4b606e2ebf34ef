package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	r.Get("/healthz", h.handleHealth)
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	// Backfills and manual draw runs are long; only reads get a timeout.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/api/strategies", h.handleGetStrategies)

		r.Get("/api/rankings/current", h.handleCurrentRankings)
		r.Get("/api/rankings/summary", h.handleRankingSummary)
		r.Get("/api/rankings/top3", h.handleTopRankings)
		r.Get("/api/rankings/draw/{drawNumber}", h.handleRankingsByDraw)
		r.Get("/api/rankings/draw/{drawNumber}/qr", h.handleRankingQR)
		r.Get("/api/rankings/strategy/{key}", h.handleStrategyHistory)

		r.Get("/api/simulation/status", h.handleSimulationStatus)
		r.Get("/api/simulation/results", h.handleSimulationResults)
		r.Get("/api/simulation/results/{key}", h.handleSimulationResult)
	})

	r.Post("/api/admin/login", h.handleLogin)
	r.Post("/api/admin/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		r.Get("/api/admin/settings", h.handleGetSettings)
		r.Put("/api/admin/settings", h.handleUpdateSettings)

		r.Post("/api/simulation/start", h.handleStartSimulation)
		r.Post("/api/simulation/stop", h.handleStopSimulation)
		r.Post("/api/simulation/draw/{drawNumber}", h.handleRunDraw)

		r.Post("/api/rankings/calculate/{drawNumber}", h.handleCalculateRankings)
		r.Post("/api/rankings/backfill", h.handleBackfillRankings)

		r.Post("/api/scheduler/run", h.handleRunScheduler)
	})

	return r
}
