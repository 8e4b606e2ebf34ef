package handlers

// LoginRequest is the body of POST /api/admin/login
type LoginRequest struct {
	Password string `json:"password"`
}

// SimulationRequest is the optional body of the start and draw endpoints.
// Zero means the stored setting, then the server default.
type SimulationRequest struct {
	TicketsPerDraw int `json:"tickets_per_draw"`
}

// BackfillRankingsRequest is the body of POST /api/rankings/backfill
type BackfillRankingsRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}
