// Package strategy provides the named number-generation policies that the
// simulator plays against historical draws.
package strategy

import (
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/abrezinsky/lottorank/internal/lotto"
)

// Category groups strategies by whether they read draw history
type Category string

const (
	Algorithmic Category = "ALGORITHMIC"
	DataDerived Category = "DATA_DERIVED"
)

// Generator produces one ticket. Generators hold no state between calls.
type Generator func(ctx Context, rng *rand.Rand) lotto.Ticket

// Strategy is a named generator plus its display metadata
type Strategy struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`

	generate Generator
}

// New creates a strategy from a generator
func New(key, name, description string, category Category, gen Generator) Strategy {
	return Strategy{
		Key:         key,
		Name:        name,
		Description: description,
		Category:    category,
		generate:    gen,
	}
}

// Generate produces a ticket using a fresh random source
func (s Strategy) Generate(ctx Context) lotto.Ticket {
	return s.generate(ctx, NewRand())
}

// GenerateWith produces a ticket from rng. rng must not be shared between goroutines.
func (s Strategy) GenerateWith(ctx Context, rng *rand.Rand) lotto.Ticket {
	return s.generate(ctx, rng)
}

// NewRand returns a randomly seeded source for use by a single goroutine
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Registry maps strategy keys to strategies
type Registry struct {
	byKey map[string]Strategy
	keys  []string
}

// NewRegistry builds a registry. A later strategy replaces an earlier one with the same key.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{byKey: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		r.byKey[s.Key] = s
	}
	r.keys = make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		r.keys = append(r.keys, k)
	}
	sort.Strings(r.keys)
	return r
}

// Default returns a registry holding every built-in strategy
func Default() *Registry {
	return NewRegistry(Builtins()...)
}

func (r *Registry) Get(key string) (Strategy, bool) {
	s, ok := r.byKey[key]
	return s, ok
}

// Keys returns all keys in lexicographic order
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// All returns all strategies ordered by key
func (r *Registry) All() []Strategy {
	out := make([]Strategy, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.byKey[k])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.keys)
}

// Resolve looks up key case-insensitively and falls back to RANDOM
func (r *Registry) Resolve(key string) Strategy {
	if s, ok := r.byKey[strings.ToUpper(strings.TrimSpace(key))]; ok {
		return s
	}
	if s, ok := r.byKey[KeyRandom]; ok {
		return s
	}
	return randomStrategy()
}
