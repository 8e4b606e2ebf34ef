package models

import "time"

// Draw is one historical drawing. Draws are created by an external feed
// and never modified here.
type Draw struct {
	DrawNumber     int       `json:"draw_number"`
	Date           time.Time `json:"date"`
	Numbers        [6]int    `json:"numbers"`
	Bonus          int       `json:"bonus"`
	JackpotAmount  *int64    `json:"jackpot_amount,omitempty"`
	JackpotWinners int64     `json:"jackpot_winners"`
}

// HasNumber reports whether n is one of the six main numbers
func (d Draw) HasNumber(n int) bool {
	for _, m := range d.Numbers {
		if m == n {
			return true
		}
	}
	return false
}

// SimulationResult aggregates the tickets of one strategy played against one draw.
// TotalTickets always equals NoWinCount plus the five rank counts.
type SimulationResult struct {
	ID             int64     `json:"id"`
	StrategyKey    string    `json:"strategy_key"`
	DrawNumber     int       `json:"draw_number"`
	TotalTickets   int64     `json:"total_tickets"`
	Rank1Count     int64     `json:"rank1_count"`
	Rank2Count     int64     `json:"rank2_count"`
	Rank3Count     int64     `json:"rank3_count"`
	Rank4Count     int64     `json:"rank4_count"`
	Rank5Count     int64     `json:"rank5_count"`
	NoWinCount     int64     `json:"no_win_count"`
	EstimatedPrize int64     `json:"estimated_prize"`
	CreatedAt      time.Time `json:"created_at"`
}

// TotalWins is the number of tickets that won any tier
func (r SimulationResult) TotalWins() int64 {
	return r.Rank1Count + r.Rank2Count + r.Rank3Count + r.Rank4Count + r.Rank5Count
}

// JobStatus is the lifecycle state of a simulation job
type JobStatus string

const (
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobPaused    JobStatus = "PAUSED"
)

// SimulationJob tracks one full backfill run
type SimulationJob struct {
	ID              int64      `json:"id"`
	TotalTasks      int        `json:"total_tasks"`
	CompletedTasks  int        `json:"completed_tasks"`
	Status          JobStatus  `json:"status"`
	CurrentStrategy string     `json:"current_strategy,omitempty"`
	TicketsPerDraw  int        `json:"tickets_per_draw"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// ProgressPercent returns completion in the range 0..100
func (j SimulationJob) ProgressPercent() float64 {
	if j.TotalTasks <= 0 {
		return 0
	}
	p := float64(j.CompletedTasks) * 100 / float64(j.TotalTasks)
	if p > 100 {
		return 100
	}
	return p
}

// IsTerminal reports whether the job has stopped for good
func (j SimulationJob) IsTerminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed || j.Status == JobPaused
}

// WeeklyRanking is one row of the leaderboard published for a draw.
// Rows are immutable once saved.
type WeeklyRanking struct {
	ID             int64     `json:"id"`
	DrawNumber     int       `json:"draw_number"`
	StrategyKey    string    `json:"strategy_key"`
	WeeklyScore    float64   `json:"weekly_score"`
	WeightedScore  float64   `json:"weighted_score"`
	RankPosition   int       `json:"rank_position"`
	PreviousRank   *int      `json:"previous_rank"`
	RankChange     int       `json:"rank_change"`
	Rank1Count     int64     `json:"rank1_count"`
	Rank2Count     int64     `json:"rank2_count"`
	Rank3Count     int64     `json:"rank3_count"`
	Rank4Count     int64     `json:"rank4_count"`
	Rank5Count     int64     `json:"rank5_count"`
	TotalWins      int64     `json:"total_wins"`
	TotalTickets   int64     `json:"total_tickets"`
	EstimatedPrize int64     `json:"estimated_prize"`
	CreatedAt      time.Time `json:"created_at"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket message types
const (
	MsgJobProgress      = "job_progress"
	MsgJobFinished      = "job_finished"
	MsgRankingPublished = "ranking_published"
	MsgJobStatus        = "job_status"
)
