package services

import (
	"context"
	"time"

	"github.com/abrezinsky/lottorank/internal/models"
)

// Broadcaster defines the interface for broadcasting messages to clients
type Broadcaster interface {
	BroadcastMessage(msgType string, payload interface{})
}

// Recorder receives simulation and ranking events for instrumentation
type Recorder interface {
	TaskExecuted(strategyKey string, tickets int, elapsed time.Duration)
	TaskSkipped(n int)
	TaskFailed(strategyKey string)
	SetRunning(running bool)
	JobFinished(status models.JobStatus)
	RankingComputed(drawNumber int)
	RankingReused(drawNumber int)
}

type noopRecorder struct{}

func (noopRecorder) TaskExecuted(string, int, time.Duration) {}
func (noopRecorder) TaskSkipped(int)                         {}
func (noopRecorder) TaskFailed(string)                       {}
func (noopRecorder) SetRunning(bool)                         {}
func (noopRecorder) JobFinished(models.JobStatus)            {}
func (noopRecorder) RankingComputed(int)                     {}
func (noopRecorder) RankingReused(int)                       {}

// SimulationServicer defines the interface for simulation operations
type SimulationServicer interface {
	StartBackfill(ctx context.Context, ticketsPerDraw int) (*models.SimulationJob, error)
	RunBackfill(ctx context.Context, ticketsPerDraw int) (*models.SimulationJob, error)
	Stop(ctx context.Context) error
	RunDraw(ctx context.Context, drawNumber, ticketsPerDraw int) (*DrawRunResult, error)
	Status(ctx context.Context) (*SimulationStatus, error)
	Summary(ctx context.Context, strategyKey string) (*StrategySummary, error)
	Summaries(ctx context.Context) ([]StrategySummary, error)
	IsRunning() bool
	SetBroadcaster(b Broadcaster)
}

// RankingServicer defines the interface for leaderboard operations
type RankingServicer interface {
	Compute(ctx context.Context, drawNumber int) ([]models.WeeklyRanking, error)
	Current(ctx context.Context) ([]models.WeeklyRanking, error)
	ByDraw(ctx context.Context, drawNumber int) ([]models.WeeklyRanking, error)
	Top(ctx context.Context, drawNumber, limit int) ([]models.WeeklyRanking, error)
	History(ctx context.Context, strategyKey string) ([]models.WeeklyRanking, error)
	TopKeys(ctx context.Context, n int) ([]string, error)
	IsTop(ctx context.Context, strategyKey string) (bool, error)
	Summary(ctx context.Context) (*RankingSummary, error)
	Backfill(ctx context.Context, from, to int) (int, error)
	ShareQR(ctx context.Context, drawNumber int) ([]byte, error)
	SetBroadcaster(b Broadcaster)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	TicketsPerDraw(ctx context.Context, fallback int) (int, error)
	SetTicketsPerDraw(ctx context.Context, n int) error
	SchedulerEnabled(ctx context.Context) (bool, error)
	SetSchedulerEnabled(ctx context.Context, enabled bool) error
	UpdateSettings(ctx context.Context, settings Settings) error
	AllSettings(ctx context.Context) (map[string]interface{}, error)
}

// Ensure concrete types implement interfaces
var (
	_ SimulationServicer = (*SimulationService)(nil)
	_ RankingServicer    = (*RankingService)(nil)
	_ SettingsServicer   = (*SettingsService)(nil)
)
