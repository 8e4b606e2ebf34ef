package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/services"
)

func drawOf(rankings []models.WeeklyRanking) int {
	if len(rankings) == 0 {
		return 0
	}
	return rankings[0].DrawNumber
}

func (h *Handlers) handleCurrentRankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.Ranking.Current(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, RankingsResponse{DrawNumber: drawOf(rankings), Rankings: rankings})
}

func (h *Handlers) handleRankingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Ranking.Summary(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, summary)
}

// handleTopRankings returns the leading strategies of the latest draw, or of
// ?draw=N when given
func (h *Handlers) handleTopRankings(w http.ResponseWriter, r *http.Request) {
	drawNumber, err := parseIntQuery(r, "draw", 0)
	if err != nil {
		respondError(w, err)
		return
	}
	limit, err := parseIntQuery(r, "limit", services.TopCount)
	if err != nil {
		respondError(w, err)
		return
	}

	if drawNumber == 0 {
		current, err := h.Ranking.Current(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		if len(current) == 0 {
			respondOK(w, RankingsResponse{Rankings: []models.WeeklyRanking{}})
			return
		}
		drawNumber = current[0].DrawNumber
	}

	top, err := h.Ranking.Top(r.Context(), drawNumber, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, RankingsResponse{DrawNumber: drawNumber, Rankings: top})
}

func (h *Handlers) handleRankingsByDraw(w http.ResponseWriter, r *http.Request) {
	drawNumber, err := parseIntParam(r, "drawNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	rankings, err := h.Ranking.ByDraw(r.Context(), drawNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, RankingsResponse{DrawNumber: drawNumber, Rankings: rankings})
}

// handleRankingQR serves a PNG QR code linking to a draw's leaderboard
func (h *Handlers) handleRankingQR(w http.ResponseWriter, r *http.Request) {
	drawNumber, err := parseIntParam(r, "drawNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	png, err := h.Ranking.ShareQR(r.Context(), drawNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// handleStrategyHistory lists one strategy's leaderboard positions, latest first.
// Keys absent from both the registry and the rankings table are 404.
func (h *Handlers) handleStrategyHistory(w http.ResponseWriter, r *http.Request) {
	key := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "key")))
	history, err := h.Ranking.History(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	if len(history) == 0 {
		if _, ok := h.Registry.Get(key); !ok {
			respondError(w, NotFound("Unknown strategy "+key))
			return
		}
		history = []models.WeeklyRanking{}
	}
	respondOK(w, history)
}

func (h *Handlers) handleCalculateRankings(w http.ResponseWriter, r *http.Request) {
	drawNumber, err := parseIntParam(r, "drawNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	rankings, err := h.Ranking.Compute(r.Context(), drawNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, RankingsResponse{DrawNumber: drawNumber, Rankings: rankings})
}

func (h *Handlers) handleBackfillRankings(w http.ResponseWriter, r *http.Request) {
	var req BackfillRankingsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	ranked, err := h.Ranking.Backfill(r.Context(), req.From, req.To)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, BackfillRankingsResponse{From: req.From, To: req.To, Ranked: ranked})
}
