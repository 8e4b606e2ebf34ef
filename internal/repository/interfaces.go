package repository

import (
	"context"

	"github.com/abrezinsky/lottorank/internal/models"
)

// DrawProvider is the read-only view of draw history
type DrawProvider interface {
	LatestDraw(ctx context.Context) (*models.Draw, error)
	// ListDraws returns every draw, most recent first
	ListDraws(ctx context.Context) ([]models.Draw, error)
	GetDraw(ctx context.Context, drawNumber int) (*models.Draw, error)
}

// ResultRepository stores per strategy and draw simulation aggregates.
// A result is written once and never updated.
type ResultRepository interface {
	ResultExists(ctx context.Context, strategyKey string, drawNumber int) (bool, error)
	SaveResult(ctx context.Context, result models.SimulationResult) (created bool, err error)
	GetResult(ctx context.Context, strategyKey string, drawNumber int) (*models.SimulationResult, error)
	ListResultsByStrategy(ctx context.Context, strategyKey string) ([]models.SimulationResult, error)
	ListResultsByDraw(ctx context.Context, drawNumber int) ([]models.SimulationResult, error)
	DistinctStrategyKeys(ctx context.Context) ([]string, error)
	SummarizeResults(ctx context.Context) ([]ResultTotals, error)
}

// RankingRepository stores published leaderboard snapshots
type RankingRepository interface {
	RankingsExist(ctx context.Context, drawNumber int) (bool, error)
	SaveRankings(ctx context.Context, rankings []models.WeeklyRanking) error
	ListRankingsByDraw(ctx context.Context, drawNumber int) ([]models.WeeklyRanking, error)
	// RecentRankings returns up to limit rows for strategyKey with draw numbers
	// strictly below beforeDraw, most recent first
	RecentRankings(ctx context.Context, strategyKey string, beforeDraw, limit int) ([]models.WeeklyRanking, error)
	RankAt(ctx context.Context, strategyKey string, drawNumber int) (rank int, found bool, err error)
	LatestRankedDraw(ctx context.Context) (drawNumber int, found bool, err error)
	ListRankingsByStrategy(ctx context.Context, strategyKey string) ([]models.WeeklyRanking, error)
}

// JobRepository stores simulation job records
type JobRepository interface {
	CreateJob(ctx context.Context, job *models.SimulationJob) error
	UpdateJob(ctx context.Context, job models.SimulationJob) error
	LatestJob(ctx context.Context) (*models.SimulationJob, error)
	PauseRunningJobs(ctx context.Context, reason string) (int64, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	DrawProvider
	ResultRepository
	RankingRepository
	JobRepository
	SettingsRepository
}

// ResultTotals sums the results of one strategy across all draws
type ResultTotals struct {
	StrategyKey    string
	Draws          int
	TotalTickets   int64
	Rank1Count     int64
	Rank2Count     int64
	Rank3Count     int64
	Rank4Count     int64
	Rank5Count     int64
	EstimatedPrize int64
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
