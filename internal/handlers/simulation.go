package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ticketsFor resolves the ticket count for a run: request, then settings, then default
func (h *Handlers) ticketsFor(r *http.Request, requested int) (int, error) {
	if requested != 0 {
		return requested, nil
	}
	if h.Settings == nil {
		return h.defaultTickets, nil
	}
	return h.Settings.TicketsPerDraw(r.Context(), h.defaultTickets)
}

func (h *Handlers) handleSimulationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Simulation.Status(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, status)
}

func (h *Handlers) handleSimulationResults(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Simulation.Summaries(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, summaries)
}

func (h *Handlers) handleSimulationResult(w http.ResponseWriter, r *http.Request) {
	key := strings.ToUpper(chi.URLParam(r, "key"))
	summary, err := h.Simulation.Summary(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, summary)
}

// handleStartSimulation launches a backfill and returns immediately with the job
func (h *Handlers) handleStartSimulation(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	tickets, err := h.ticketsFor(r, req.TicketsPerDraw)
	if err != nil {
		respondError(w, err)
		return
	}

	job, err := h.Simulation.StartBackfill(r.Context(), tickets)
	if err != nil {
		respondError(w, err)
		return
	}
	respondAccepted(w, job)
}

func (h *Handlers) handleStopSimulation(w http.ResponseWriter, r *http.Request) {
	if err := h.Simulation.Stop(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Stop requested")
}

// handleRunDraw simulates every strategy for one draw and waits for the result
func (h *Handlers) handleRunDraw(w http.ResponseWriter, r *http.Request) {
	drawNumber, err := parseIntParam(r, "drawNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	var req SimulationRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	tickets, err := h.ticketsFor(r, req.TicketsPerDraw)
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Simulation.RunDraw(r.Context(), drawNumber, tickets)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}
