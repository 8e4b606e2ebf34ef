package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/abrezinsky/lottorank/internal/logger"
	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/services"
)

type fakeSim struct {
	status  *services.SimulationStatus
	err     error
	stopErr error
	stops   int
}

func (f *fakeSim) Status(context.Context) (*services.SimulationStatus, error) {
	return f.status, f.err
}

func (f *fakeSim) Stop(context.Context) error {
	f.stops++
	return f.stopErr
}

type testConsole struct {
	*console
	out    *bytes.Buffer
	sim    *fakeSim
	opened []string
	quits  int
}

func newTestConsole() *testConsole {
	tc := &testConsole{out: &bytes.Buffer{}, sim: &fakeSim{}}
	tc.console = &console{
		out:            tc.out,
		log:            logger.NewWithLevel(slog.LevelInfo),
		sim:            tc.sim,
		leaderboardURL: func() string { return "http://10.0.0.5:8081/api/rankings/current" },
		open: func(url string) error {
			tc.opened = append(tc.opened, url)
			return nil
		},
		quit: func() { tc.quits++ },
	}
	return tc
}

func TestConsole_StatusNoJob(t *testing.T) {
	tc := newTestConsole()
	tc.sim.status = &services.SimulationStatus{}

	tc.handle('s')
	if !strings.Contains(tc.out.String(), "No simulation has run yet") {
		t.Errorf("output = %q", tc.out.String())
	}
}

func TestConsole_StatusRunning(t *testing.T) {
	tc := newTestConsole()
	tc.sim.status = &services.SimulationStatus{
		Running:         true,
		CompletedTasks:  11,
		ProgressPercent: 50,
		Job:             &models.SimulationJob{ID: 3, TotalTasks: 22, Status: models.JobRunning, CurrentStrategy: "HOT"},
	}

	tc.handle('S')
	out := tc.out.String()
	for _, want := range []string{"Job 3 RUNNING", "11/22 tasks", "50.0%", "at HOT"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestConsole_StatusError(t *testing.T) {
	tc := newTestConsole()
	tc.sim.err = errors.New("database is locked")

	tc.handle('s')
	if !strings.Contains(tc.out.String(), "Status unavailable: database is locked") {
		t.Errorf("output = %q", tc.out.String())
	}
}

func TestConsole_Stop(t *testing.T) {
	tc := newTestConsole()
	tc.handle('x')
	if tc.sim.stops != 1 || !strings.Contains(tc.out.String(), "Stop requested") {
		t.Errorf("stops = %d, output = %q", tc.sim.stops, tc.out.String())
	}

	tc.out.Reset()
	tc.sim.stopErr = services.ErrSimulationNotRunning
	tc.handle('x')
	if !strings.Contains(tc.out.String(), services.ErrSimulationNotRunning.Error()) {
		t.Errorf("output = %q", tc.out.String())
	}
}

func TestConsole_OpenLeaderboard(t *testing.T) {
	tc := newTestConsole()
	tc.handle('o')
	if len(tc.opened) != 1 || tc.opened[0] != "http://10.0.0.5:8081/api/rankings/current" {
		t.Errorf("opened = %v", tc.opened)
	}

	tc.out.Reset()
	tc.open = func(string) error { return errors.New("no browser") }
	tc.handle('o')
	if !strings.Contains(tc.out.String(), "Error opening browser: no browser") {
		t.Errorf("output = %q", tc.out.String())
	}
}

func TestConsole_ToggleHTTPLogging(t *testing.T) {
	tc := newTestConsole()
	before := tc.log.IsHTTPLoggingEnabled()

	tc.handle('h')
	if tc.log.IsHTTPLoggingEnabled() == before {
		t.Error("expected HTTP logging to toggle")
	}
	tc.handle('h')
	if tc.log.IsHTTPLoggingEnabled() != before {
		t.Error("expected HTTP logging to toggle back")
	}
}

func TestConsole_CycleLogLevel(t *testing.T) {
	tc := newTestConsole()
	want := []slog.Level{slog.LevelWarn, slog.LevelError, slog.LevelDebug, slog.LevelInfo}
	for _, level := range want {
		tc.handle('l')
		if got := tc.log.GetLevel(); got != level {
			t.Fatalf("level = %v, want %v", got, level)
		}
	}
}

func TestConsole_Help(t *testing.T) {
	tc := newTestConsole()
	tc.handle('?')
	for _, key := range []string{"Show simulation status", "Open leaderboard", "Quit server"} {
		if !strings.Contains(tc.out.String(), key) {
			t.Errorf("help missing %q", key)
		}
	}
}

func TestConsole_RunStopsOnQuit(t *testing.T) {
	tc := newTestConsole()
	tc.sim.status = &services.SimulationStatus{}

	tc.run(strings.NewReader("s?qs"))
	if tc.quits != 1 {
		t.Errorf("quits = %d, want 1", tc.quits)
	}
	if strings.Count(tc.out.String(), "No simulation has run yet") != 1 {
		t.Error("keys after q should not be handled")
	}
}

func TestConsole_RunStopsOnEOF(t *testing.T) {
	tc := newTestConsole()
	tc.run(strings.NewReader("zz"))
	if tc.quits != 0 || tc.out.Len() != 0 {
		t.Errorf("unbound keys produced output %q", tc.out.String())
	}
}

func TestOverridesApply(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	overrides{}.apply(cfg)
	if cfg.Server.Port != 8081 || cfg.Database.Path != "lottorank.db" {
		t.Fatalf("empty overrides changed config: %+v", cfg)
	}

	overrides{port: 9000, db: "x.db", adminPw: "pw", logLevel: "debug", logFormat: "json", tickets: 50}.apply(cfg)
	if cfg.Server.Port != 9000 || cfg.Database.Path != "x.db" || cfg.Admin.Password != "pw" ||
		cfg.Log.Level != "debug" || cfg.Log.Format != "json" || cfg.Simulation.TicketsPerDraw != 50 {
		t.Errorf("config = %+v", cfg)
	}
}
