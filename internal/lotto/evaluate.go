package lotto

import "github.com/abrezinsky/lottorank/internal/models"

// Tier is the prize class of a ticket. 1 is the jackpot, 0 is no win.
type Tier int

const (
	NoWin Tier = iota
	Tier1
	Tier2
	Tier3
	Tier4
	Tier5
)

// FallbackJackpot is paid for tier 1 when a draw carries no jackpot amount
const FallbackJackpot int64 = 2_000_000_000

var fixedPrizes = map[Tier]int64{
	Tier2: 50_000_000,
	Tier3: 1_500_000,
	Tier4: 50_000,
	Tier5: 5_000,
}

// Match assigns the prize tier of t against d
func Match(t Ticket, d models.Draw) Tier {
	matched := 0
	for _, n := range t {
		if d.HasNumber(n) {
			matched++
		}
	}

	switch {
	case matched == 6:
		return Tier1
	case matched == 5 && t.Contains(d.Bonus):
		return Tier2
	case matched == 5:
		return Tier3
	case matched == 4:
		return Tier4
	case matched == 3:
		return Tier5
	default:
		return NoWin
	}
}

// Prize returns the payout for tier in draw d
func Prize(tier Tier, d models.Draw) int64 {
	if tier == Tier1 {
		if d.JackpotAmount != nil {
			return *d.JackpotAmount
		}
		return FallbackJackpot
	}
	return fixedPrizes[tier]
}

// Evaluate returns the tier and payout of t against d
func Evaluate(t Ticket, d models.Draw) (Tier, int64) {
	tier := Match(t, d)
	return tier, Prize(tier, d)
}
