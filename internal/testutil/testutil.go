package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// Draw builds a deterministic draw for number n. Numbers vary with n so
// frequency based strategies see a non-uniform history.
func Draw(n int) models.Draw {
	base := (n * 5) % 38
	return models.Draw{
		DrawNumber: n,
		Date:       time.Date(2002, 12, 7, 11, 45, 0, 0, time.UTC).AddDate(0, 0, 7*(n-1)),
		Numbers:    [6]int{base + 1, base + 2, base + 4, base + 5, base + 6, base + 8},
		Bonus:      (base+20)%45 + 1,
	}
}

// Draws builds draws from..to inclusive in ascending order
func Draws(from, to int) []models.Draw {
	draws := make([]models.Draw, 0, to-from+1)
	for n := from; n <= to; n++ {
		draws = append(draws, Draw(n))
	}
	return draws
}

// SeedDraws inserts draws from..to into repo
func SeedDraws(t *testing.T, repo *repository.Repository, from, to int) []models.Draw {
	t.Helper()
	draws := Draws(from, to)
	if err := repo.SaveDraws(context.Background(), draws...); err != nil {
		t.Fatalf("failed to seed draws: %v", err)
	}
	return draws
}

// SeedResult stores a result with the given tier counts and total tickets
func SeedResult(t *testing.T, repo repository.ResultRepository, key string, drawNumber int, total int64, counts [5]int64) models.SimulationResult {
	t.Helper()
	r := models.SimulationResult{
		StrategyKey:  key,
		DrawNumber:   drawNumber,
		TotalTickets: total,
		Rank1Count:   counts[0],
		Rank2Count:   counts[1],
		Rank3Count:   counts[2],
		Rank4Count:   counts[3],
		Rank5Count:   counts[4],
	}
	r.NoWinCount = total - r.TotalWins()
	if _, err := repo.SaveResult(context.Background(), r); err != nil {
		t.Fatalf("failed to seed result %s/%d: %v", key, drawNumber, err)
	}
	return r
}
