package mock

import (
	"context"

	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.ListDrawsError = errors.New("database error")
//	svc := services.NewSimulationService(log, mockRepo, mockRepo, strategy.Default(), opts)
//	_, err := svc.RunBackfill(ctx, 10)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Draw Errors =====
	LatestDrawError error
	ListDrawsError  error
	GetDrawError    error

	// ===== Result Errors =====
	ResultExistsError          error
	SaveResultError            error
	SaveResultErrorStrategy    string // when set, SaveResultError applies to this strategy only
	GetResultError             error
	ListResultsByStrategyError error
	ListResultsByDrawError     error
	DistinctStrategyKeysError  error
	SummarizeResultsError      error

	// ===== Ranking Errors =====
	RankingsExistError          error
	SaveRankingsError           error
	ListRankingsByDrawError     error
	RecentRankingsError         error
	RankAtError                 error
	LatestRankedDrawError       error
	ListRankingsByStrategyError error

	// ===== Job Errors =====
	CreateJobError        error
	UpdateJobError        error
	LatestJobError        error
	PauseRunningJobsError error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Draw Methods =====

func (m *Repository) LatestDraw(ctx context.Context) (*models.Draw, error) {
	if m.LatestDrawError != nil {
		return nil, m.LatestDrawError
	}
	return m.FullRepository.LatestDraw(ctx)
}

func (m *Repository) ListDraws(ctx context.Context) ([]models.Draw, error) {
	if m.ListDrawsError != nil {
		return nil, m.ListDrawsError
	}
	return m.FullRepository.ListDraws(ctx)
}

func (m *Repository) GetDraw(ctx context.Context, drawNumber int) (*models.Draw, error) {
	if m.GetDrawError != nil {
		return nil, m.GetDrawError
	}
	return m.FullRepository.GetDraw(ctx, drawNumber)
}

// ===== Result Methods =====

func (m *Repository) ResultExists(ctx context.Context, strategyKey string, drawNumber int) (bool, error) {
	if m.ResultExistsError != nil {
		return false, m.ResultExistsError
	}
	return m.FullRepository.ResultExists(ctx, strategyKey, drawNumber)
}

func (m *Repository) SaveResult(ctx context.Context, result models.SimulationResult) (bool, error) {
	if m.SaveResultError != nil && (m.SaveResultErrorStrategy == "" || m.SaveResultErrorStrategy == result.StrategyKey) {
		return false, m.SaveResultError
	}
	return m.FullRepository.SaveResult(ctx, result)
}

func (m *Repository) GetResult(ctx context.Context, strategyKey string, drawNumber int) (*models.SimulationResult, error) {
	if m.GetResultError != nil {
		return nil, m.GetResultError
	}
	return m.FullRepository.GetResult(ctx, strategyKey, drawNumber)
}

func (m *Repository) ListResultsByStrategy(ctx context.Context, strategyKey string) ([]models.SimulationResult, error) {
	if m.ListResultsByStrategyError != nil {
		return nil, m.ListResultsByStrategyError
	}
	return m.FullRepository.ListResultsByStrategy(ctx, strategyKey)
}

func (m *Repository) ListResultsByDraw(ctx context.Context, drawNumber int) ([]models.SimulationResult, error) {
	if m.ListResultsByDrawError != nil {
		return nil, m.ListResultsByDrawError
	}
	return m.FullRepository.ListResultsByDraw(ctx, drawNumber)
}

func (m *Repository) DistinctStrategyKeys(ctx context.Context) ([]string, error) {
	if m.DistinctStrategyKeysError != nil {
		return nil, m.DistinctStrategyKeysError
	}
	return m.FullRepository.DistinctStrategyKeys(ctx)
}

func (m *Repository) SummarizeResults(ctx context.Context) ([]repository.ResultTotals, error) {
	if m.SummarizeResultsError != nil {
		return nil, m.SummarizeResultsError
	}
	return m.FullRepository.SummarizeResults(ctx)
}

// ===== Ranking Methods =====

func (m *Repository) RankingsExist(ctx context.Context, drawNumber int) (bool, error) {
	if m.RankingsExistError != nil {
		return false, m.RankingsExistError
	}
	return m.FullRepository.RankingsExist(ctx, drawNumber)
}

func (m *Repository) SaveRankings(ctx context.Context, rankings []models.WeeklyRanking) error {
	if m.SaveRankingsError != nil {
		return m.SaveRankingsError
	}
	return m.FullRepository.SaveRankings(ctx, rankings)
}

func (m *Repository) ListRankingsByDraw(ctx context.Context, drawNumber int) ([]models.WeeklyRanking, error) {
	if m.ListRankingsByDrawError != nil {
		return nil, m.ListRankingsByDrawError
	}
	return m.FullRepository.ListRankingsByDraw(ctx, drawNumber)
}

func (m *Repository) RecentRankings(ctx context.Context, strategyKey string, beforeDraw, limit int) ([]models.WeeklyRanking, error) {
	if m.RecentRankingsError != nil {
		return nil, m.RecentRankingsError
	}
	return m.FullRepository.RecentRankings(ctx, strategyKey, beforeDraw, limit)
}

func (m *Repository) RankAt(ctx context.Context, strategyKey string, drawNumber int) (int, bool, error) {
	if m.RankAtError != nil {
		return 0, false, m.RankAtError
	}
	return m.FullRepository.RankAt(ctx, strategyKey, drawNumber)
}

func (m *Repository) LatestRankedDraw(ctx context.Context) (int, bool, error) {
	if m.LatestRankedDrawError != nil {
		return 0, false, m.LatestRankedDrawError
	}
	return m.FullRepository.LatestRankedDraw(ctx)
}

func (m *Repository) ListRankingsByStrategy(ctx context.Context, strategyKey string) ([]models.WeeklyRanking, error) {
	if m.ListRankingsByStrategyError != nil {
		return nil, m.ListRankingsByStrategyError
	}
	return m.FullRepository.ListRankingsByStrategy(ctx, strategyKey)
}

// ===== Job Methods =====

func (m *Repository) CreateJob(ctx context.Context, job *models.SimulationJob) error {
	if m.CreateJobError != nil {
		return m.CreateJobError
	}
	return m.FullRepository.CreateJob(ctx, job)
}

func (m *Repository) UpdateJob(ctx context.Context, job models.SimulationJob) error {
	if m.UpdateJobError != nil {
		return m.UpdateJobError
	}
	return m.FullRepository.UpdateJob(ctx, job)
}

func (m *Repository) LatestJob(ctx context.Context) (*models.SimulationJob, error) {
	if m.LatestJobError != nil {
		return nil, m.LatestJobError
	}
	return m.FullRepository.LatestJob(ctx)
}

func (m *Repository) PauseRunningJobs(ctx context.Context, reason string) (int64, error) {
	if m.PauseRunningJobsError != nil {
		return 0, m.PauseRunningJobsError
	}
	return m.FullRepository.PauseRunningJobs(ctx, reason)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}
