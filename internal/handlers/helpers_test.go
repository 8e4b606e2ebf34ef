package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abrezinsky/lottorank/internal/auth"
	"github.com/abrezinsky/lottorank/internal/handlers"
	"github.com/abrezinsky/lottorank/internal/logger"
	"github.com/abrezinsky/lottorank/internal/lotto"
	"github.com/abrezinsky/lottorank/internal/repository"
	"github.com/abrezinsky/lottorank/internal/services"
	"github.com/abrezinsky/lottorank/internal/strategy"
	"github.com/abrezinsky/lottorank/internal/testutil"
)

type testEnv struct {
	repo     *repository.Repository
	h        *handlers.Handlers
	router   http.Handler
	sim      *services.SimulationService
	ranking  *services.RankingService
	settings *services.SettingsService
}

func fixed(key string, nums ...int) strategy.Strategy {
	t, err := lotto.NewTicket(nums)
	if err != nil {
		panic(err)
	}
	return strategy.New(key, "Strategy "+key, "plays "+key, strategy.Algorithmic, func(strategy.Context, *rand.Rand) lotto.Ticket {
		return t
	})
}

func testRegistry() *strategy.Registry {
	return strategy.NewRegistry(
		fixed("A", 1, 2, 3, 4, 5, 6),
		fixed("B", 6, 7, 9, 10, 11, 13),
		fixed("C", 40, 41, 42, 43, 44, 45),
	)
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewWithLevel(100)
	repo := testutil.NewTestRepository(t)
	registry := testRegistry()

	settings := services.NewSettingsService(log, repo)
	sim := services.NewSimulationService(log, repo, repo, registry, services.SimulationOptions{TicketsPerDraw: 20, MaxWorkers: 2})
	ranking := services.NewRankingService(log, repo, settings, registry, services.RankingOptions{})

	h := handlers.NewForTesting(sim, ranking, settings, registry)
	return &testEnv{repo: repo, h: h, router: h.Router(), sim: sim, ranking: ranking, settings: settings}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/admin/login", handlers.LoginRequest{Password: "test-password"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v\nbody: %s", v, err, rr.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d: %s", rr.Code, want, rr.Body.String())
	}
}

func expectCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rr, status)
	if got := decode[handlers.APIError](t, rr); got.Code != code {
		t.Errorf("code = %q, want %q", got.Code, code)
	}
}

func waitIdle(t *testing.T, sim *services.SimulationService) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for sim.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("simulation did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// seedRanked stores results for A, B and C on draws 1 and 2 and computes both leaderboards
func (e *testEnv) seedRanked(t *testing.T) {
	t.Helper()
	testutil.SeedDraws(t, e.repo, 1, 2)
	testutil.SeedResult(t, e.repo, "A", 1, 100, [5]int64{0, 0, 0, 1, 5})
	testutil.SeedResult(t, e.repo, "B", 1, 100, [5]int64{0, 0, 0, 0, 2})
	testutil.SeedResult(t, e.repo, "C", 1, 100, [5]int64{0, 0, 0, 0, 1})
	testutil.SeedResult(t, e.repo, "A", 2, 100, [5]int64{0, 0, 0, 0, 0})
	testutil.SeedResult(t, e.repo, "B", 2, 100, [5]int64{0, 0, 1, 2, 3})
	testutil.SeedResult(t, e.repo, "C", 2, 100, [5]int64{0, 0, 0, 1, 1})
	for _, n := range []int{1, 2} {
		if _, err := e.ranking.Compute(context.Background(), n); err != nil {
			t.Fatalf("Compute(%d): %v", n, err)
		}
	}
}
