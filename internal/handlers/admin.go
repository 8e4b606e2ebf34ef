package handlers

import (
	"net/http"

	"github.com/abrezinsky/lottorank/internal/services"
)

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.Registry != nil {
		resp.Strategies = h.Registry.Len()
	}
	if h.Simulation != nil {
		resp.Running = h.Simulation.IsRunning()
	}
	respondOK(w, resp)
}

// handleGetStrategies lists the registry, flagging the current top strategies
func (h *Handlers) handleGetStrategies(w http.ResponseWriter, r *http.Request) {
	top := map[string]bool{}
	if h.Ranking != nil {
		keys, err := h.Ranking.TopKeys(r.Context(), services.TopCount)
		if err != nil {
			respondError(w, err)
			return
		}
		for _, k := range keys {
			top[k] = true
		}
	}

	all := h.Registry.All()
	resp := make([]StrategyResponse, 0, len(all))
	for _, s := range all {
		resp = append(resp, StrategyResponse{
			Key:         s.Key,
			Name:        s.Name,
			Description: s.Description,
			Category:    s.Category,
			Top:         top[s.Key],
		})
	}
	respondOK(w, resp)
}

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.AllSettings(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, settings)
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req services.Settings
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Settings.UpdateSettings(r.Context(), req); err != nil {
		respondError(w, err)
		return
	}
	h.handleGetSettings(w, r)
}

// handleRunScheduler runs the weekly cycle for the latest draw right now
func (h *Handlers) handleRunScheduler(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		respondError(w, Unavailable("Scheduler is not configured"))
		return
	}
	report, err := h.Scheduler.RunNow(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := SchedulerRunResponse{Report: report}
	if h.Scheduler.Enabled() {
		if next := h.Scheduler.NextRun(); !next.IsZero() {
			resp.NextRun = &next
		}
	}
	respondOK(w, resp)
}
