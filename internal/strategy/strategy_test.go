package strategy

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/abrezinsky/lottorank/internal/lotto"
	"github.com/abrezinsky/lottorank/internal/models"
)

// history returns n synthetic draws numbered n..1, most recent first.
func history(n int) []models.Draw {
	draws := make([]models.Draw, 0, n)
	for i := n; i >= 1; i-- {
		base := (i * 7) % 39
		draws = append(draws, models.Draw{
			DrawNumber: i,
			Date:       time.Date(2024, 1, 6, 20, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i),
			Numbers:    [6]int{base + 1, base + 2, base + 3, base + 4, base + 5, base + 7},
			Bonus:      45 - base%10,
		})
	}
	return draws
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestBuiltins_ProduceValidTickets(t *testing.T) {
	contexts := map[string]Context{
		"empty":   {},
		"short":   ContextFrom(history(3)),
		"history": ContextFrom(history(60)),
	}

	for _, s := range Default().All() {
		for name, ctx := range contexts {
			t.Run(s.Key+"/"+name, func(t *testing.T) {
				rng := seeded()
				for i := 0; i < 500; i++ {
					tk := s.GenerateWith(ctx, rng)
					if !lotto.Valid(tk) {
						t.Fatalf("invalid ticket %v", tk)
					}
				}
				if tk := s.Generate(ctx); !lotto.Valid(tk) {
					t.Fatalf("invalid ticket %v", tk)
				}
			})
		}
	}
}

func count(t lotto.Ticket, pred func(int) bool) int {
	c := 0
	for _, n := range t {
		if pred(n) {
			c++
		}
	}
	return c
}

func TestBuiltins_Constraints(t *testing.T) {
	hist := history(60)
	ctx := ContextFrom(hist)
	latest := hist[0]
	hotPool := TopByFrequency(ctx.RecentFrequency(), poolSize)
	coldPool := BottomByFrequency(ctx.RecentFrequency(), poolSize)

	in := func(set []int) func(int) bool {
		return func(n int) bool { return slices.Contains(set, n) }
	}

	checks := map[string]func(lotto.Ticket) bool{
		KeySumRange:      func(tk lotto.Ticket) bool { s := Sum(tk); return s >= 100 && s <= 175 },
		KeyNoConsecutive: func(tk lotto.Ticket) bool { return !HasConsecutive(tk) },
		KeySpread:        func(tk lotto.Ticket) bool { return HasMinGap(tk, 3) },
		KeyEdge:          func(tk lotto.Ticket) bool { return DistinctLastDigits(tk) >= 5 },
		KeyConsecutive:   HasConsecutive,
		KeyDouble:        func(tk lotto.Ticket) bool { return count(tk, in(doubles)) >= 1 },
		KeyPrime:         func(tk lotto.Ticket) bool { return count(tk, in(primes)) >= 4 },
		KeyFibonacci:     func(tk lotto.Ticket) bool { return count(tk, in(fibPool)) >= 4 },
		KeyLucky:         func(tk lotto.Ticket) bool { return count(tk, in(luckyNums)) >= 3 },
		KeyAttack:        func(tk lotto.Ticket) bool { return count(tk, func(n int) bool { return n >= 30 }) >= 3 },
		KeyLowHigh:       func(tk lotto.Ticket) bool { return count(tk, func(n int) bool { return n <= 22 }) == 3 },
		KeyBalance:       func(tk lotto.Ticket) bool { return count(tk, func(n int) bool { return n%2 == 1 }) == 3 },
		KeyHot:           func(tk lotto.Ticket) bool { return count(tk, in(hotPool)) == 6 },
		KeyCold:          func(tk lotto.Ticket) bool { return count(tk, in(coldPool)) == 6 },
		KeyHotColdMix:    func(tk lotto.Ticket) bool { return count(tk, in(hotPool)) >= 3 },
		KeyExcludeLast:   func(tk lotto.Ticket) bool { return count(tk, latest.HasNumber) == 0 },
		KeyMirror: func(tk lotto.Ticket) bool {
			return count(tk, func(n int) bool { return latest.HasNumber(46 - n) }) >= 3
		},
		KeyDecade: func(tk lotto.Ticket) bool {
			for _, d := range decades {
				if count(tk, func(n int) bool { return n >= d[0] && n <= d[1] }) == 0 {
					return false
				}
			}
			return true
		},
		KeyStable: func(tk lotto.Ticket) bool {
			for _, s := range stableStart {
				end := min(s+9, lotto.MaxNumber)
				if count(tk, func(n int) bool { return n >= s && n <= end }) == 0 {
					return false
				}
			}
			return true
		},
	}

	reg := Default()
	for key, check := range checks {
		t.Run(key, func(t *testing.T) {
			s, ok := reg.Get(key)
			if !ok {
				t.Fatalf("strategy %s not registered", key)
			}
			rng := seeded()
			for i := 0; i < 300; i++ {
				tk := s.GenerateWith(ctx, rng)
				if !check(tk) {
					t.Fatalf("ticket %v violates %s", tk, key)
				}
			}
		})
	}
}

func TestContextFor_NoLookAhead(t *testing.T) {
	hist := history(50)

	ctx := ContextFor(30, hist)
	if ctx.Latest == nil || ctx.Latest.DrawNumber != 29 {
		t.Fatalf("latest = %+v, want draw 29", ctx.Latest)
	}
	for _, d := range ctx.All {
		if d.DrawNumber >= 30 {
			t.Fatalf("draw %d leaked into context for 30", d.DrawNumber)
		}
	}
	if len(ctx.All) != 29 {
		t.Errorf("len(All) = %d, want 29", len(ctx.All))
	}
	if len(ctx.Recent) != RecentWindow || ctx.Recent[0].DrawNumber != 29 {
		t.Errorf("recent window wrong: len=%d first=%d", len(ctx.Recent), ctx.Recent[0].DrawNumber)
	}

	first := ContextFor(1, hist)
	if first.HasHistory() || len(first.All) != 0 {
		t.Error("context for the first draw should be empty")
	}
}

func TestContextFrom_ShortHistory(t *testing.T) {
	ctx := ContextFrom(history(5))
	if len(ctx.Recent) != 5 || len(ctx.All) != 5 {
		t.Errorf("got recent=%d all=%d, want 5/5", len(ctx.Recent), len(ctx.All))
	}
	if ctx.Latest.DrawNumber != 5 {
		t.Errorf("latest = %d, want 5", ctx.Latest.DrawNumber)
	}
}

func TestContext_FrequencyWithoutConstructor(t *testing.T) {
	hist := history(4)
	ctx := Context{Recent: hist, All: hist}
	if len(ctx.RecentFrequency()) == 0 || len(ctx.AllFrequency()) == 0 {
		t.Error("frequency should be computed on demand")
	}
}

func TestFrequencyRanking(t *testing.T) {
	draws := []models.Draw{
		{Numbers: [6]int{1, 2, 3, 4, 5, 6}},
		{Numbers: [6]int{1, 2, 3, 7, 8, 9}},
		{Numbers: [6]int{1, 2, 10, 11, 12, 13}},
	}
	freq := Frequency(draws)
	if freq[1] != 3 || freq[3] != 2 || freq[13] != 1 || freq[45] != 0 {
		t.Fatalf("unexpected frequency map: %v", freq)
	}

	top := TopByFrequency(freq, 4)
	if !slices.Equal(top, []int{1, 2, 3, 4}) {
		t.Errorf("TopByFrequency = %v", top)
	}
	if got := TopByFrequency(freq, 100); len(got) != 13 {
		t.Errorf("TopByFrequency should only return drawn numbers, got %d", len(got))
	}

	bottom := BottomByFrequency(freq, 3)
	if !slices.Equal(bottom, []int{14, 15, 16}) {
		t.Errorf("BottomByFrequency = %v", bottom)
	}
}

func TestRejection_ReturnsLastCandidate(t *testing.T) {
	calls := 0
	tk := Rejection(seeded(), 10, func(lotto.Ticket) bool {
		calls++
		return false
	})
	if calls != 10 {
		t.Errorf("predicate called %d times, want 10", calls)
	}
	if !lotto.Valid(tk) {
		t.Errorf("invalid fallback %v", tk)
	}
}

func TestPickFromPool_ShortPoolIsFilled(t *testing.T) {
	tk := PickFromPool(seeded(), []int{5, 9})
	if !tk.Contains(5) || !tk.Contains(9) || !lotto.Valid(tk) {
		t.Errorf("unexpected ticket %v", tk)
	}
}

func TestPicks(t *testing.T) {
	var p Picks
	for _, n := range []int{40, 3, 3, 0, 46, 17, 1, 22, 9, 30} {
		p.Add(n)
	}
	if !p.Full() {
		t.Fatal("expected full picks")
	}
	if got := p.Ticket(); got != (lotto.Ticket{1, 3, 9, 17, 22, 40}) {
		t.Errorf("Ticket() = %v", got)
	}
	if p.Add(2) {
		t.Error("Add on a full set must fail")
	}
}

func TestTicketPredicates(t *testing.T) {
	tk := lotto.Ticket{1, 5, 10, 14, 30, 45}
	if HasConsecutive(tk) {
		t.Error("no consecutive pair expected")
	}
	if !HasMinGap(tk, 4) || HasMinGap(tk, 5) {
		t.Error("min gap should be exactly 4")
	}
	if Sum(tk) != 105 {
		t.Errorf("Sum = %d", Sum(tk))
	}
	if DistinctLastDigits(tk) != 4 {
		t.Errorf("DistinctLastDigits = %d", DistinctLastDigits(tk))
	}
}

func TestRegistry(t *testing.T) {
	reg := Default()

	keys := reg.Keys()
	if !slices.IsSorted(keys) {
		t.Errorf("keys not sorted: %v", keys)
	}
	if len(keys) != 22 || reg.Len() != 22 {
		t.Errorf("expected 22 built-ins, got %d", len(keys))
	}
	for i, s := range reg.All() {
		if s.Key != keys[i] {
			t.Errorf("All()[%d] = %s, want %s", i, s.Key, keys[i])
		}
		if s.Name == "" || s.Description == "" {
			t.Errorf("%s missing metadata", s.Key)
		}
	}

	if s := reg.Resolve(" hot "); s.Key != KeyHot {
		t.Errorf("Resolve(hot) = %s", s.Key)
	}
	if s := reg.Resolve("NOPE"); s.Key != KeyRandom {
		t.Errorf("Resolve(NOPE) = %s, want RANDOM", s.Key)
	}
	if s := NewRegistry().Resolve("NOPE"); s.Key != KeyRandom {
		t.Error("empty registry should still resolve to RANDOM")
	}

	keys[0] = "MUTATED"
	if reg.Keys()[0] == "MUTATED" {
		t.Error("Keys must return a copy")
	}
}

func TestNewRegistry_LaterReplacesEarlier(t *testing.T) {
	gen := func(_ Context, rng *rand.Rand) lotto.Ticket { return RandomTicket(rng) }
	reg := NewRegistry(
		New("A", "first", "d", Algorithmic, gen),
		New("A", "second", "d", Algorithmic, gen),
	)
	s, _ := reg.Get("A")
	if reg.Len() != 1 || s.Name != "second" {
		t.Errorf("got len=%d name=%s", reg.Len(), s.Name)
	}
}
