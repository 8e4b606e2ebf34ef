// Package lotto holds the six-from-45 ticket type and the rules that score
// a ticket against a drawing.
package lotto

import (
	"fmt"
	"sort"
)

const (
	MinNumber  = 1
	MaxNumber  = 45
	PickCount  = 6
	TicketCost = 1000
)

// Ticket is six distinct numbers in [MinNumber, MaxNumber], ascending
type Ticket [PickCount]int

// NewTicket sorts nums and validates the result
func NewTicket(nums []int) (Ticket, error) {
	var t Ticket
	if len(nums) != PickCount {
		return t, fmt.Errorf("ticket needs %d numbers, got %d", PickCount, len(nums))
	}
	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)
	copy(t[:], sorted)
	if !Valid(t) {
		return Ticket{}, fmt.Errorf("invalid ticket %v", nums)
	}
	return t, nil
}

// FromSet builds a ticket from a set that already holds exactly six numbers.
// It panics otherwise; generators use it only after filling the set.
func FromSet(set map[int]struct{}) Ticket {
	nums := make([]int, 0, len(set))
	for n := range set {
		nums = append(nums, n)
	}
	t, err := NewTicket(nums)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether t is strictly ascending and within range
func Valid(t Ticket) bool {
	for i, n := range t {
		if n < MinNumber || n > MaxNumber {
			return false
		}
		if i > 0 && n <= t[i-1] {
			return false
		}
	}
	return true
}

// Contains reports whether n is on the ticket
func (t Ticket) Contains(n int) bool {
	for _, m := range t {
		if m == n {
			return true
		}
	}
	return false
}

// Slice returns the numbers as a slice
func (t Ticket) Slice() []int {
	return append([]int(nil), t[:]...)
}
