package strategy

import (
	"math/rand/v2"
	"sort"

	"github.com/abrezinsky/lottorank/internal/lotto"
	"github.com/abrezinsky/lottorank/internal/models"
)

// DefaultAttempts bounds rejection sampling
const DefaultAttempts = 1000

// Picks collects distinct numbers for a ticket under construction.
// The zero value is empty and ready to use.
type Picks struct {
	has [lotto.MaxNumber + 1]bool
	n   int
}

// Add inserts n if it is in range, not yet present and the set is not full.
func (p *Picks) Add(n int) bool {
	if n < lotto.MinNumber || n > lotto.MaxNumber || p.has[n] || p.n >= lotto.PickCount {
		return false
	}
	p.has[n] = true
	p.n++
	return true
}

func (p *Picks) Has(n int) bool {
	return n >= lotto.MinNumber && n <= lotto.MaxNumber && p.has[n]
}

func (p *Picks) Len() int {
	return p.n
}

// Full reports whether six numbers have been picked
func (p *Picks) Full() bool {
	return p.n >= lotto.PickCount
}

// Ticket returns the picks in ascending order. The set must be full.
func (p *Picks) Ticket() lotto.Ticket {
	var t lotto.Ticket
	i := 0
	for n := lotto.MinNumber; n <= lotto.MaxNumber && i < lotto.PickCount; n++ {
		if p.has[n] {
			t[i] = n
			i++
		}
	}
	return t
}

// RandomTicket draws six distinct numbers uniformly from the full range
func RandomTicket(rng *rand.Rand) lotto.Ticket {
	var p Picks
	return FillRandom(rng, &p)
}

// FillRandom completes p with uniformly drawn numbers and returns the ticket
func FillRandom(rng *rand.Rand, p *Picks) lotto.Ticket {
	for !p.Full() {
		p.Add(rng.IntN(lotto.MaxNumber) + lotto.MinNumber)
	}
	return p.Ticket()
}

// Rejection samples random tickets until accept holds, giving up after
// attempts tries and returning the last candidate.
func Rejection(rng *rand.Rand, attempts int, accept func(lotto.Ticket) bool) lotto.Ticket {
	var t lotto.Ticket
	for i := 0; i < max(attempts, 1); i++ {
		t = RandomTicket(rng)
		if accept(t) {
			return t
		}
	}
	return t
}

// PickFromPool chooses six numbers from pool, topping up from the full range
// when the pool has fewer than six usable entries.
func PickFromPool(rng *rand.Rand, pool []int) lotto.Ticket {
	var p Picks
	AddShuffled(rng, &p, pool, lotto.PickCount)
	return FillRandom(rng, &p)
}

// AddShuffled adds up to limit numbers from a shuffled copy of pool to p
func AddShuffled(rng *rand.Rand, p *Picks, pool []int, limit int) {
	shuffled := append([]int(nil), pool...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	added := 0
	for _, n := range shuffled {
		if added >= limit || p.Full() {
			return
		}
		if p.Add(n) {
			added++
		}
	}
}

// Frequency counts how often each main number appears in draws
func Frequency(draws []models.Draw) map[int]int {
	freq := make(map[int]int, lotto.MaxNumber)
	for _, d := range draws {
		for _, n := range d.Numbers {
			freq[n]++
		}
	}
	return freq
}

// TopByFrequency returns up to n numbers that appear in freq, most frequent
// first. Equal counts are ordered by number.
func TopByFrequency(freq map[int]int, n int) []int {
	nums := make([]int, 0, len(freq))
	for num, c := range freq {
		if c > 0 {
			nums = append(nums, num)
		}
	}
	sort.Slice(nums, func(i, j int) bool {
		if freq[nums[i]] != freq[nums[j]] {
			return freq[nums[i]] > freq[nums[j]]
		}
		return nums[i] < nums[j]
	})
	if len(nums) > n {
		nums = nums[:n]
	}
	return nums
}

// BottomByFrequency returns the n least frequent numbers of the full range.
// Numbers absent from freq count as zero.
func BottomByFrequency(freq map[int]int, n int) []int {
	nums := make([]int, 0, lotto.MaxNumber)
	for num := lotto.MinNumber; num <= lotto.MaxNumber; num++ {
		nums = append(nums, num)
	}
	sort.SliceStable(nums, func(i, j int) bool {
		return freq[nums[i]] < freq[nums[j]]
	})
	if len(nums) > n {
		nums = nums[:n]
	}
	return nums
}

// HasConsecutive reports whether any two neighbours differ by one
func HasConsecutive(t lotto.Ticket) bool {
	for i := 1; i < len(t); i++ {
		if t[i]-t[i-1] == 1 {
			return true
		}
	}
	return false
}

// HasMinGap reports whether every pair of neighbours is at least gap apart
func HasMinGap(t lotto.Ticket, gap int) bool {
	for i := 1; i < len(t); i++ {
		if t[i]-t[i-1] < gap {
			return false
		}
	}
	return true
}

func Sum(t lotto.Ticket) int {
	s := 0
	for _, n := range t {
		s += n
	}
	return s
}

// DistinctLastDigits counts the different units digits on the ticket
func DistinctLastDigits(t lotto.Ticket) int {
	var seen [10]bool
	count := 0
	for _, n := range t {
		if !seen[n%10] {
			seen[n%10] = true
			count++
		}
	}
	return count
}
