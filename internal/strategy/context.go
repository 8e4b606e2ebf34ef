package strategy

import "github.com/abrezinsky/lottorank/internal/models"

// RecentWindow is how many draws the hot/cold strategies look back over
const RecentWindow = 20

// Context is the read-only draw history a generator may consult.
// Draw slices are ordered most recent first and must not be modified.
type Context struct {
	Recent []models.Draw
	All    []models.Draw
	Latest *models.Draw

	recentFreq map[int]int
	allFreq    map[int]int
}

// ContextFor builds the context for simulating target: only draws strictly
// older than target are visible. history must be ordered most recent first.
func ContextFor(target int, history []models.Draw) Context {
	i := 0
	for i < len(history) && history[i].DrawNumber >= target {
		i++
	}
	return ContextFrom(history[i:])
}

// ContextFrom builds a context over the whole of history, most recent first
func ContextFrom(history []models.Draw) Context {
	if len(history) == 0 {
		return Context{}
	}
	recent := history
	if len(recent) > RecentWindow {
		recent = recent[:RecentWindow]
	}
	latest := history[0]
	return Context{
		Recent:     recent,
		All:        history,
		Latest:     &latest,
		recentFreq: Frequency(recent),
		allFreq:    Frequency(history),
	}
}

// HasHistory reports whether any draw is visible
func (c Context) HasHistory() bool {
	return c.Latest != nil || len(c.Recent) > 0
}

// RecentFrequency counts main numbers over the recent window
func (c Context) RecentFrequency() map[int]int {
	if c.recentFreq != nil {
		return c.recentFreq
	}
	return Frequency(c.Recent)
}

// AllFrequency counts main numbers over the full history
func (c Context) AllFrequency() map[int]int {
	if c.allFreq != nil {
		return c.allFreq
	}
	return Frequency(c.All)
}
