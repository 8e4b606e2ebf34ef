package lotto

import (
	"time"

	"github.com/abrezinsky/lottorank/internal/models"
)

// Tally counts tiers and prize money for one batch of tickets.
// It is not safe for concurrent use.
type Tally struct {
	Total  int64
	Counts [6]int64 // indexed by Tier
	Prize  int64
}

// Add evaluates t against d and records the outcome
func (t *Tally) Add(ticket Ticket, d models.Draw) Tier {
	tier, prize := Evaluate(ticket, d)
	t.Total++
	t.Counts[tier]++
	t.Prize += prize
	return tier
}

// Wins is the number of tickets in tiers 1 through 5
func (t *Tally) Wins() int64 {
	return t.Total - t.Counts[NoWin]
}

// Result converts the tally into a result row for strategyKey and drawNumber
func (t *Tally) Result(strategyKey string, drawNumber int) models.SimulationResult {
	return models.SimulationResult{
		StrategyKey:    strategyKey,
		DrawNumber:     drawNumber,
		TotalTickets:   t.Total,
		Rank1Count:     t.Counts[Tier1],
		Rank2Count:     t.Counts[Tier2],
		Rank3Count:     t.Counts[Tier3],
		Rank4Count:     t.Counts[Tier4],
		Rank5Count:     t.Counts[Tier5],
		NoWinCount:     t.Counts[NoWin],
		EstimatedPrize: t.Prize,
		CreatedAt:      time.Now().UTC(),
	}
}
