package handlers

import (
	"time"

	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/scheduler"
	"github.com/abrezinsky/lottorank/internal/strategy"
)

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status     string `json:"status"`
	Strategies int    `json:"strategies"`
	Running    bool   `json:"simulation_running"`
}

// StrategyResponse describes one registered strategy
type StrategyResponse struct {
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    strategy.Category `json:"category"`
	Top         bool              `json:"top"`
}

// RankingsResponse wraps a leaderboard for one draw
type RankingsResponse struct {
	DrawNumber int                    `json:"draw_number"`
	Rankings   []models.WeeklyRanking `json:"rankings"`
}

// BackfillRankingsResponse reports how many draws now have rankings
type BackfillRankingsResponse struct {
	From   int `json:"from"`
	To     int `json:"to"`
	Ranked int `json:"ranked"`
}

// SchedulerRunResponse reports a manual scheduler run
type SchedulerRunResponse struct {
	Report  *scheduler.RunReport `json:"report"`
	NextRun *time.Time           `json:"next_run,omitempty"`
}
