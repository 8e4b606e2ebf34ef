package services_test

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/abrezinsky/lottorank/internal/logger"
	"github.com/abrezinsky/lottorank/internal/lotto"
	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/services"
	"github.com/abrezinsky/lottorank/internal/strategy"
)

func testLogger() logger.Logger {
	return logger.NewWithLevel(100) // above Error, silences output
}

// randomRegistry builds n strategies S01..Snn that draw uniformly
func randomRegistry(n int) *strategy.Registry {
	list := make([]strategy.Strategy, 0, n)
	for i := 1; i <= n; i++ {
		key := fmt.Sprintf("S%02d", i)
		list = append(list, strategy.New(key, key, "", strategy.Algorithmic, func(_ strategy.Context, rng *rand.Rand) lotto.Ticket {
			return strategy.RandomTicket(rng)
		}))
	}
	return strategy.NewRegistry(list...)
}

// fixedStrategy always plays the same ticket
func fixedStrategy(key string, nums ...int) strategy.Strategy {
	t, err := lotto.NewTicket(nums)
	if err != nil {
		panic(err)
	}
	return strategy.New(key, key, "", strategy.Algorithmic, func(strategy.Context, *rand.Rand) lotto.Ticket {
		return t
	})
}

// gate blocks generators until released and reports when the first one starts
type gate struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) strategy(key string) strategy.Strategy {
	return strategy.New(key, key, "", strategy.Algorithmic, func(_ strategy.Context, rng *rand.Rand) lotto.Ticket {
		g.once.Do(func() { close(g.started) })
		<-g.release
		return strategy.RandomTicket(rng)
	})
}

func (g *gate) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(5 * time.Second):
		t.Fatal("generator never started")
	}
}

func waitIdle(t *testing.T, svc *services.SimulationService) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for svc.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("simulation did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// fakeRecorder counts recorder events
type fakeRecorder struct {
	mu       sync.Mutex
	executed int
	skipped  int
	failed   int
	finished []models.JobStatus
	computed int
	reused   int
}

func (r *fakeRecorder) TaskExecuted(string, int, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executed++
}

func (r *fakeRecorder) TaskSkipped(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped += n
}

func (r *fakeRecorder) TaskFailed(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

func (r *fakeRecorder) SetRunning(bool) {}

func (r *fakeRecorder) JobFinished(status models.JobStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, status)
}

func (r *fakeRecorder) RankingComputed(int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.computed++
}

func (r *fakeRecorder) RankingReused(int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reused++
}

// fakeBroadcaster records message types
type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []string
	payloads []interface{}
}

func (b *fakeBroadcaster) BroadcastMessage(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msgType)
	b.payloads = append(b.payloads, payload)
}

func (b *fakeBroadcaster) count(msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.messages {
		if m == msgType {
			n++
		}
	}
	return n
}
