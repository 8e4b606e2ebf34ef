package strategy

import (
	"math/rand/v2"

	"github.com/abrezinsky/lottorank/internal/lotto"
)

// Built-in strategy keys
const (
	KeyAttack        = "ATTACK"
	KeyBalance       = "BALANCE"
	KeyCluster       = "CLUSTER"
	KeyCold          = "COLD"
	KeyConsecutive   = "CONSECUTIVE"
	KeyDecade        = "DECADE"
	KeyDouble        = "DOUBLE"
	KeyEdge          = "EDGE"
	KeyExcludeLast   = "EXCLUDE_LAST"
	KeyFibonacci     = "FIBONACCI"
	KeyFrequency     = "FREQUENCY"
	KeyHot           = "HOT"
	KeyHotColdMix    = "HOT_COLD_MIX"
	KeyLowHigh       = "LOW_HIGH"
	KeyLucky         = "LUCKY"
	KeyMirror        = "MIRROR"
	KeyNoConsecutive = "NO_CONSECUTIVE"
	KeyPrime         = "PRIME"
	KeyRandom        = "RANDOM"
	KeySpread        = "SPREAD"
	KeyStable        = "STABLE"
	KeySumRange      = "SUM_RANGE"
)

const poolSize = 15

var (
	primes      = []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43}
	luckyNums   = []int{3, 7, 9, 11, 13, 21, 27, 33, 37, 44}
	doubles     = []int{11, 22, 33, 44}
	fibonacci   = []int{1, 2, 3, 5, 8, 13, 21, 34}
	decades     = [][2]int{{1, 10}, {11, 20}, {21, 30}, {31, 40}, {41, 45}}
	stableStart = []int{1, 10, 20, 30, 40}
)

// Builtins returns the built-in strategies
func Builtins() []Strategy {
	return []Strategy{
		randomStrategy(),
		New(KeySumRange, "Sum Range", "Total of the six numbers between 100 and 175", Algorithmic, sumRange),
		New(KeyNoConsecutive, "No Consecutive", "No two numbers in a row", Algorithmic, noConsecutive),
		New(KeySpread, "Spread", "Numbers spaced at least 4 apart, relaxing to 3", Algorithmic, spread),
		New(KeyEdge, "Last Digit Spread", "At least 5 different last digits", Algorithmic, edge),
		New(KeyConsecutive, "Consecutive Pair", "At least one pair of consecutive numbers", Algorithmic, consecutive),
		New(KeyDouble, "Double", "Includes one of 11, 22, 33, 44", Algorithmic, double),
		New(KeyPrime, "Prime", "Four numbers drawn from the primes", Algorithmic, prime),
		New(KeyFibonacci, "Fibonacci", "Four numbers at or next to a Fibonacci number", Algorithmic, fib),
		New(KeyLucky, "Lucky Numbers", "Three or four traditionally lucky numbers", Algorithmic, lucky),
		New(KeyDecade, "Decade", "One number from each band of ten", Algorithmic, decade),
		New(KeyStable, "Stable", "One number from each of five fixed bands", Algorithmic, stable),
		New(KeyLowHigh, "Low High", "Three from 1-22 and three from 23-45", Algorithmic, lowHigh),
		New(KeyBalance, "Odd Even", "Three odd and three even numbers", Algorithmic, balance),
		New(KeyAttack, "Attack", "At least three numbers from 30-45", Algorithmic, attack),
		New(KeyCluster, "Cluster", "Two or three tight groups of numbers", Algorithmic, cluster),
		New(KeyHot, "Hot", "Most frequent numbers of the last 20 draws", DataDerived, hot),
		New(KeyCold, "Cold", "Least frequent numbers of the last 20 draws", DataDerived, cold),
		New(KeyFrequency, "All-time Frequency", "Most frequent numbers across all draws", DataDerived, frequency),
		New(KeyHotColdMix, "Hot Cold Mix", "Three hot numbers mixed with cold ones", DataDerived, hotColdMix),
		New(KeyExcludeLast, "Exclude Last", "Avoids the numbers of the latest draw", DataDerived, excludeLast),
		New(KeyMirror, "Mirror", "Mirrors (46 - n) of the latest draw", DataDerived, mirror),
	}
}

func randomStrategy() Strategy {
	return New(KeyRandom, "Random", "Six numbers picked uniformly from 1-45", Algorithmic,
		func(_ Context, rng *rand.Rand) lotto.Ticket { return RandomTicket(rng) })
}

func sumRange(_ Context, rng *rand.Rand) lotto.Ticket {
	return Rejection(rng, DefaultAttempts, func(t lotto.Ticket) bool {
		s := Sum(t)
		return s >= 100 && s <= 175
	})
}

func noConsecutive(_ Context, rng *rand.Rand) lotto.Ticket {
	return Rejection(rng, DefaultAttempts, func(t lotto.Ticket) bool {
		return !HasConsecutive(t)
	})
}

func spread(_ Context, rng *rand.Rand) lotto.Ticket {
	t := Rejection(rng, DefaultAttempts, func(t lotto.Ticket) bool { return HasMinGap(t, 4) })
	if HasMinGap(t, 4) {
		return t
	}
	return Rejection(rng, DefaultAttempts/2, func(t lotto.Ticket) bool { return HasMinGap(t, 3) })
}

func edge(_ Context, rng *rand.Rand) lotto.Ticket {
	return Rejection(rng, DefaultAttempts, func(t lotto.Ticket) bool {
		return DistinctLastDigits(t) >= 5
	})
}

func consecutive(_ Context, rng *rand.Rand) lotto.Ticket {
	var p Picks
	start := rng.IntN(lotto.MaxNumber-1) + 1
	p.Add(start)
	p.Add(start + 1)
	return FillRandom(rng, &p)
}

func double(_ Context, rng *rand.Rand) lotto.Ticket {
	var p Picks
	p.Add(doubles[rng.IntN(len(doubles))])
	return FillRandom(rng, &p)
}

func prime(_ Context, rng *rand.Rand) lotto.Ticket {
	var p Picks
	AddShuffled(rng, &p, primes, 4)
	return FillRandom(rng, &p)
}

func fibonacciPool() []int {
	var seen Picks
	pool := make([]int, 0, 3*len(fibonacci))
	for _, f := range fibonacci {
		for _, n := range []int{f - 1, f, f + 1} {
			if n >= lotto.MinNumber && n <= lotto.MaxNumber && !seen.has[n] {
				seen.has[n] = true
				pool = append(pool, n)
			}
		}
	}
	return pool
}

var fibPool = fibonacciPool()

func fib(_ Context, rng *rand.Rand) lotto.Ticket {
	var p Picks
	AddShuffled(rng, &p, fibPool, 4)
	return FillRandom(rng, &p)
}

func lucky(_ Context, rng *rand.Rand) lotto.Ticket {
	var p Picks
	AddShuffled(rng, &p, luckyNums, rng.IntN(2)+3)
	return FillRandom(rng, &p)
}

func decade(_ Context, rng *rand.Rand) lotto.Ticket {
	var p Picks
	for _, d := range decades {
		p.Add(d[0] + rng.IntN(d[1]-d[0]+1))
	}
	return FillRandom(rng, &p)
}

func stable(_ Context, rng *rand.Rand) lotto.Ticket {
	var p Picks
	for _, start := range stableStart {
		end := min(start+9, lotto.MaxNumber)
		p.Add(start + rng.IntN(end-start+1))
	}
	return FillRandom(rng, &p)
}

func lowHigh(_ Context, rng *rand.Rand) lotto.Ticket {
	var p Picks
	for p.Len() < 3 {
		p.Add(rng.IntN(22) + 1)
	}
	for !p.Full() {
		p.Add(rng.IntN(23) + 23)
	}
	return p.Ticket()
}

func balance(_ Context, rng *rand.Rand) lotto.Ticket {
	var p Picks
	for p.Len() < 3 {
		p.Add(rng.IntN(23)*2 + 1)
	}
	for !p.Full() {
		p.Add(rng.IntN(22)*2 + 2)
	}
	return p.Ticket()
}

func attack(_ Context, rng *rand.Rand) lotto.Ticket {
	var p Picks
	for p.Len() < 3 {
		p.Add(rng.IntN(16) + 30)
	}
	return FillRandom(rng, &p)
}

func cluster(_ Context, rng *rand.Rand) lotto.Ticket {
	clusters := rng.IntN(2) + 2
	perCluster := lotto.PickCount / clusters

	// Starts lie in 1..42 and at least 8 apart, so three always fit.
	starts := make([]int, 0, clusters)
	for len(starts) < clusters {
		s := rng.IntN(lotto.MaxNumber-3) + 1
		ok := true
		for _, o := range starts {
			if abs(s-o) < 8 {
				ok = false
				break
			}
		}
		if ok {
			starts = append(starts, s)
		}
	}

	var p Picks
	for _, s := range starts {
		for j := 0; j < perCluster && !p.Full(); j++ {
			p.Add(s + rng.IntN(4))
		}
	}
	return FillRandom(rng, &p)
}

func hot(ctx Context, rng *rand.Rand) lotto.Ticket {
	if len(ctx.Recent) == 0 {
		return RandomTicket(rng)
	}
	return PickFromPool(rng, TopByFrequency(ctx.RecentFrequency(), poolSize))
}

func cold(ctx Context, rng *rand.Rand) lotto.Ticket {
	if len(ctx.Recent) == 0 {
		return RandomTicket(rng)
	}
	return PickFromPool(rng, BottomByFrequency(ctx.RecentFrequency(), poolSize))
}

func frequency(ctx Context, rng *rand.Rand) lotto.Ticket {
	if len(ctx.All) == 0 {
		return RandomTicket(rng)
	}
	return PickFromPool(rng, TopByFrequency(ctx.AllFrequency(), poolSize))
}

func hotColdMix(ctx Context, rng *rand.Rand) lotto.Ticket {
	if len(ctx.Recent) == 0 {
		return RandomTicket(rng)
	}
	freq := ctx.RecentFrequency()
	var p Picks
	AddShuffled(rng, &p, TopByFrequency(freq, poolSize), 3)
	AddShuffled(rng, &p, BottomByFrequency(freq, poolSize), lotto.PickCount)
	return FillRandom(rng, &p)
}

func excludeLast(ctx Context, rng *rand.Rand) lotto.Ticket {
	if ctx.Latest == nil {
		return RandomTicket(rng)
	}
	pool := make([]int, 0, lotto.MaxNumber)
	for n := lotto.MinNumber; n <= lotto.MaxNumber; n++ {
		if !ctx.Latest.HasNumber(n) {
			pool = append(pool, n)
		}
	}
	return PickFromPool(rng, pool)
}

func mirror(ctx Context, rng *rand.Rand) lotto.Ticket {
	if ctx.Latest == nil {
		return RandomTicket(rng)
	}
	pool := make([]int, 0, lotto.PickCount)
	for _, n := range ctx.Latest.Numbers {
		if m := 46 - n; m >= lotto.MinNumber && m <= lotto.MaxNumber {
			pool = append(pool, m)
		}
	}
	var p Picks
	AddShuffled(rng, &p, pool, rng.IntN(2)+3)
	return FillRandom(rng, &p)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
