package services

import (
	"context"

	"github.com/abrezinsky/lottorank/internal/errors"
	"github.com/abrezinsky/lottorank/internal/lotto"
	"github.com/abrezinsky/lottorank/internal/repository"
)

// StrategySummary is a strategy's performance over every simulated draw
type StrategySummary struct {
	StrategyKey  string  `json:"strategy_key"`
	Name         string  `json:"name"`
	TotalDraws   int     `json:"total_draws"`
	TotalTickets int64   `json:"total_tickets"`
	Rank1Count   int64   `json:"rank1_count"`
	Rank2Count   int64   `json:"rank2_count"`
	Rank3Count   int64   `json:"rank3_count"`
	Rank4Count   int64   `json:"rank4_count"`
	Rank5Count   int64   `json:"rank5_count"`
	TotalWins    int64   `json:"total_wins"`
	WinRate      float64 `json:"win_rate"`
	TotalPrize   int64   `json:"total_prize"`
	TotalCost    int64   `json:"total_cost"`
	ROI          float64 `json:"roi"`
}

// Summary aggregates every stored result of one strategy
func (s *SimulationService) Summary(ctx context.Context, strategyKey string) (*StrategySummary, error) {
	results, err := s.repo.ListResultsByStrategy(ctx, strategyKey)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.NotFoundf("no results for strategy %s", strategyKey)
	}

	totals := repository.ResultTotals{StrategyKey: strategyKey, Draws: len(results)}
	for _, r := range results {
		totals.TotalTickets += r.TotalTickets
		totals.Rank1Count += r.Rank1Count
		totals.Rank2Count += r.Rank2Count
		totals.Rank3Count += r.Rank3Count
		totals.Rank4Count += r.Rank4Count
		totals.Rank5Count += r.Rank5Count
		totals.EstimatedPrize += r.EstimatedPrize
	}
	summary := s.summarize(totals)
	return &summary, nil
}

// Summaries returns one summary per strategy that has results, ordered by key
func (s *SimulationService) Summaries(ctx context.Context) ([]StrategySummary, error) {
	totals, err := s.repo.SummarizeResults(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StrategySummary, 0, len(totals))
	for _, t := range totals {
		out = append(out, s.summarize(t))
	}
	return out, nil
}

func (s *SimulationService) summarize(t repository.ResultTotals) StrategySummary {
	sum := StrategySummary{
		StrategyKey:  t.StrategyKey,
		TotalDraws:   t.Draws,
		TotalTickets: t.TotalTickets,
		Rank1Count:   t.Rank1Count,
		Rank2Count:   t.Rank2Count,
		Rank3Count:   t.Rank3Count,
		Rank4Count:   t.Rank4Count,
		Rank5Count:   t.Rank5Count,
		TotalWins:    t.Rank1Count + t.Rank2Count + t.Rank3Count + t.Rank4Count + t.Rank5Count,
		TotalPrize:   t.EstimatedPrize,
		TotalCost:    t.TotalTickets * lotto.TicketCost,
	}
	if st, ok := s.registry.Get(t.StrategyKey); ok {
		sum.Name = st.Name
	}
	if sum.TotalTickets > 0 {
		sum.WinRate = float64(sum.TotalWins) * 100 / float64(sum.TotalTickets)
	}
	if sum.TotalCost > 0 {
		sum.ROI = float64(sum.TotalPrize-sum.TotalCost) * 100 / float64(sum.TotalCost)
	}
	return sum
}
