// Package scheduler runs the weekly simulate-then-rank cycle on a cron schedule.
package scheduler

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abrezinsky/lottorank/internal/errors"
	"github.com/abrezinsky/lottorank/internal/logger"
	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/repository"
	"github.com/abrezinsky/lottorank/internal/services"
)

// ErrRunInProgress is returned when a manual run overlaps another run
var ErrRunInProgress = errors.Conflict("scheduled run already in progress")

// Simulator runs every strategy against one draw
type Simulator interface {
	RunDraw(ctx context.Context, drawNumber, ticketsPerDraw int) (*services.DrawRunResult, error)
}

// Ranker publishes the leaderboard for one draw
type Ranker interface {
	Compute(ctx context.Context, drawNumber int) ([]models.WeeklyRanking, error)
}

// Settings supplies runtime overrides
type Settings interface {
	SchedulerEnabled(ctx context.Context) (bool, error)
	TicketsPerDraw(ctx context.Context, fallback int) (int, error)
}

// Options configures the scheduler
type Options struct {
	Enabled        bool
	Spec           string // standard five-field cron expression
	Location       *time.Location
	TicketsPerDraw int
}

// RunReport describes one weekly cycle
type RunReport struct {
	DrawNumber int                     `json:"draw_number"`
	Simulation *services.DrawRunResult `json:"simulation"`
	Rankings   int                     `json:"rankings"`
	Duration   string                  `json:"duration"`
}

// Scheduler triggers the weekly cycle
type Scheduler struct {
	log      logger.Logger
	draws    repository.DrawProvider
	sim      Simulator
	ranker   Ranker
	settings Settings
	opts     Options

	cron     *cron.Cron
	schedule cron.Schedule
	entry    cron.EntryID
	started  bool

	runMu  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler. The cron expression is parsed even when disabled.
func New(log logger.Logger, draws repository.DrawProvider, sim Simulator, ranker Ranker, settings Settings, opts Options) (*Scheduler, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(opts.Spec)
	if err != nil {
		return nil, errors.Validationf("invalid cron expression %q: %v", opts.Spec, err)
	}

	log = log.With("component", "scheduler")
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:      log,
		draws:    draws,
		sim:      sim,
		ranker:   ranker,
		settings: settings,
		opts:     opts,
		cron: cron.New(
			cron.WithLocation(opts.Location),
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(cronLogger{log})),
		),
		schedule: schedule,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start registers the weekly job. A disabled scheduler only logs.
func (s *Scheduler) Start() {
	if !s.opts.Enabled {
		s.log.Info("Scheduler disabled")
		return
	}
	s.entry = s.cron.Schedule(s.schedule, cron.FuncJob(s.tick))
	s.cron.Start()
	s.started = true
	s.log.Info("Scheduler started", "cron", s.opts.Spec, "timezone", s.opts.Location.String(), "next", s.NextRun())
}

// Stop waits for a running job to finish
func (s *Scheduler) Stop() {
	s.cancel()
	if s.started {
		<-s.cron.Stop().Done()
		s.started = false
	}
	s.log.Info("Scheduler stopped")
}

// Enabled reports whether the weekly job is registered
func (s *Scheduler) Enabled() bool {
	return s.opts.Enabled
}

// NextRun returns the next trigger time in the scheduler's timezone
func (s *Scheduler) NextRun() time.Time {
	if s.started {
		if e := s.cron.Entry(s.entry); !e.Next.IsZero() {
			return e.Next
		}
	}
	return s.schedule.Next(time.Now().In(s.opts.Location))
}

func (s *Scheduler) tick() {
	if s.settings != nil {
		enabled, err := s.settings.SchedulerEnabled(s.ctx)
		if err != nil {
			s.log.Error("Failed to read scheduler setting", "error", err)
			return
		}
		if !enabled {
			s.log.Info("Scheduled run skipped, paused in settings")
			return
		}
	}
	if _, err := s.RunNow(s.ctx); err != nil {
		s.log.Error("Scheduled run failed", "error", err)
	}
}

// RunNow runs the cycle for the latest draw
func (s *Scheduler) RunNow(ctx context.Context) (*RunReport, error) {
	latest, err := s.draws.LatestDraw(ctx)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, services.ErrNoDrawHistory
		}
		return nil, err
	}
	return s.RunFor(ctx, latest.DrawNumber)
}

// RunFor simulates drawNumber for every strategy and then ranks it.
// Only one run proceeds at a time.
func (s *Scheduler) RunFor(ctx context.Context, drawNumber int) (*RunReport, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	start := time.Now()
	tickets := s.opts.TicketsPerDraw
	if s.settings != nil {
		n, err := s.settings.TicketsPerDraw(ctx, tickets)
		if err != nil {
			return nil, err
		}
		tickets = n
	}

	s.log.Info("Weekly run started", "draw", drawNumber, "tickets_per_draw", tickets)
	sim, err := s.sim.RunDraw(ctx, drawNumber, tickets)
	if err != nil {
		return nil, fmt.Errorf("simulate draw %d: %w", drawNumber, err)
	}
	// a leaderboard is immutable once published; rerunning retries only the failed pairs
	if sim.Failed > 0 {
		s.log.Warn("Ranking skipped, simulation tasks failed", "draw", drawNumber, "failed", sim.Failed)
		return nil, fmt.Errorf("draw %d: %d tasks failed: %w", drawNumber, sim.Failed, services.ErrSimulationIncomplete)
	}
	rankings, err := s.ranker.Compute(ctx, drawNumber)
	if err != nil {
		return nil, fmt.Errorf("rank draw %d: %w", drawNumber, err)
	}

	report := &RunReport{
		DrawNumber: drawNumber,
		Simulation: sim,
		Rankings:   len(rankings),
		Duration:   time.Since(start).Round(time.Millisecond).String(),
	}
	s.log.Info("Weekly run finished",
		"draw", drawNumber,
		"processed", sim.Processed,
		"skipped", sim.Skipped,
		"rankings", report.Rankings,
		"duration", report.Duration)
	return report, nil
}

// cronLogger adapts Logger to cron.Logger
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
