package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abrezinsky/lottorank/internal/errors"
	"github.com/abrezinsky/lottorank/internal/logger"
	"github.com/abrezinsky/lottorank/internal/lotto"
	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/repository"
	"github.com/abrezinsky/lottorank/internal/strategy"
)

const (
	DefaultTicketsPerDraw = 100_000
	MaxTicketsPerDraw     = 1_000_000
	DefaultMaxWorkers     = 8
)

// SimulationOptions tunes the batch runner
type SimulationOptions struct {
	TicketsPerDraw int // used when a caller passes 0
	MaxWorkers     int
}

// SimulationServiceRepository defines the repository methods needed by SimulationService
type SimulationServiceRepository interface {
	repository.ResultRepository
	repository.JobRepository
}

// SimulationService plays every strategy against every historical draw
// and persists one aggregate result per pair.
type SimulationService struct {
	log         logger.Logger
	draws       repository.DrawProvider
	repo        SimulationServiceRepository
	registry    *strategy.Registry
	opts        SimulationOptions
	recorder    Recorder
	broadcaster Broadcaster

	active    atomic.Bool
	stop      atomic.Bool
	completed atomic.Int64

	mu  sync.Mutex
	job *models.SimulationJob
}

// NewSimulationService creates a new SimulationService
func NewSimulationService(log logger.Logger, draws repository.DrawProvider, repo SimulationServiceRepository, registry *strategy.Registry, opts SimulationOptions) *SimulationService {
	if opts.TicketsPerDraw <= 0 {
		opts.TicketsPerDraw = DefaultTicketsPerDraw
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	return &SimulationService{
		log:      log.With("component", "simulation"),
		draws:    draws,
		repo:     repo,
		registry: registry,
		opts:     opts,
		recorder: noopRecorder{},
	}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *SimulationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetRecorder sets the metrics recorder
func (s *SimulationService) SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	s.recorder = r
}

// DrawRunResult reports a single-draw run
type DrawRunResult struct {
	DrawNumber int `json:"draw_number"`
	Processed  int `json:"processed"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// SimulationStatus is the live view of the batch runner
type SimulationStatus struct {
	Running         bool                  `json:"running"`
	CompletedTasks  int64                 `json:"completed_tasks"`
	ProgressPercent float64               `json:"progress_percent"`
	Job             *models.SimulationJob `json:"job,omitempty"`
}

// JobProgress is the payload of job_progress and job_finished messages
type JobProgress struct {
	JobID           int64            `json:"job_id"`
	Status          models.JobStatus `json:"status"`
	CompletedTasks  int              `json:"completed_tasks"`
	TotalTasks      int              `json:"total_tasks"`
	CurrentStrategy string           `json:"current_strategy,omitempty"`
	ProgressPercent float64          `json:"progress_percent"`
}

type task struct {
	strategy strategy.Strategy
	draw     models.Draw
}

// IsRunning reports whether a backfill is in progress
func (s *SimulationService) IsRunning() bool {
	return s.active.Load()
}

// StartBackfill creates a job and runs it in the background.
// The batch outlives ctx; use Stop to end it early.
func (s *SimulationService) StartBackfill(ctx context.Context, ticketsPerDraw int) (*models.SimulationJob, error) {
	job, history, err := s.begin(ctx, ticketsPerDraw)
	if err != nil {
		return nil, err
	}
	snapshot := *job
	go func() {
		_, _ = s.run(context.WithoutCancel(ctx), job, history)
	}()
	return &snapshot, nil
}

// RunBackfill runs a full batch and returns the final job
func (s *SimulationService) RunBackfill(ctx context.Context, ticketsPerDraw int) (*models.SimulationJob, error) {
	job, history, err := s.begin(ctx, ticketsPerDraw)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, job, history)
}

// Stop asks the running batch to finish. In-flight tasks complete; the job ends PAUSED.
func (s *SimulationService) Stop(ctx context.Context) error {
	if !s.active.Load() {
		return ErrSimulationNotRunning
	}
	s.stop.Store(true)
	s.log.Info("Simulation stop requested")
	return nil
}

func (s *SimulationService) ticketCount(n int) (int, error) {
	if n == 0 {
		return s.opts.TicketsPerDraw, nil
	}
	if n < 0 || n > MaxTicketsPerDraw {
		return 0, ErrInvalidTicketCount
	}
	return n, nil
}

// begin claims the runner, records a RUNNING job and loads draw history.
// On error the runner is released and any created job is marked FAILED.
func (s *SimulationService) begin(ctx context.Context, ticketsPerDraw int) (*models.SimulationJob, []models.Draw, error) {
	tickets, err := s.ticketCount(ticketsPerDraw)
	if err != nil {
		return nil, nil, err
	}
	if !s.active.CompareAndSwap(false, true) {
		return nil, nil, ErrSimulationRunning
	}
	s.stop.Store(false)
	s.completed.Store(0)
	s.recorder.SetRunning(true)

	job := &models.SimulationJob{
		Status:         models.JobRunning,
		TicketsPerDraw: tickets,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		s.release()
		return nil, nil, err
	}
	s.setJob(job)

	history, err := s.draws.ListDraws(ctx)
	if err == nil && len(history) == 0 {
		err = ErrNoDrawHistory
	}
	if err != nil {
		s.log.Error("Failed to load draw history", "job_id", job.ID, "error", err)
		s.finish(ctx, job, models.JobFailed, err)
		s.release()
		return nil, nil, err
	}

	job.TotalTasks = s.registry.Len() * len(history)
	s.setJob(job)
	s.log.Info("Simulation started",
		"job_id", job.ID,
		"strategies", s.registry.Len(),
		"draws", len(history),
		"tickets_per_draw", tickets)
	return job, history, nil
}

func (s *SimulationService) release() {
	s.active.Store(false)
	s.recorder.SetRunning(false)
}

func (s *SimulationService) halted(ctx context.Context) bool {
	return s.stop.Load() || ctx.Err() != nil
}

// run executes the batch for job. Strategies run in key order and each
// strategy's draws most recent first.
func (s *SimulationService) run(ctx context.Context, job *models.SimulationJob, history []models.Draw) (*models.SimulationJob, error) {
	defer s.release()
	log := s.log.With("job_id", job.ID)

	// Cancelling ctx halts the batch. Writes still land so in-flight
	// results are kept and the job never stays RUNNING.
	caller := ctx
	halt := func() bool { return s.halted(caller) }
	ctx = context.WithoutCancel(ctx)

	keys := s.registry.Keys()
	pending := make(map[string][]task, len(keys))
	skipped := 0
	for _, key := range keys {
		st, _ := s.registry.Get(key)
		for _, d := range history {
			exists, err := s.repo.ResultExists(ctx, key, d.DrawNumber)
			if err != nil {
				log.Error("Failed to check existing results", "strategy", key, "draw", d.DrawNumber, "error", err)
				s.finish(ctx, job, models.JobFailed, err)
				return s.snapshot(job), err
			}
			if exists {
				skipped++
				continue
			}
			pending[key] = append(pending[key], task{strategy: st, draw: d})
		}
	}

	s.completed.Store(int64(skipped))
	s.recorder.TaskSkipped(skipped)
	job.CompletedTasks = skipped
	s.persist(ctx, job)
	if skipped > 0 {
		log.Info("Resuming simulation", "skipped", skipped, "total", job.TotalTasks)
	}

	for _, key := range keys {
		if halt() {
			break
		}
		if tasks := pending[key]; len(tasks) > 0 {
			processed, failed := s.execute(ctx, tasks, history, job.TicketsPerDraw, &s.completed, halt)
			log.Debug("Strategy finished", "strategy", key, "processed", processed, "failed", failed)
		}
		job.CompletedTasks = int(s.completed.Load())
		job.CurrentStrategy = key
		s.persist(ctx, job)
		s.broadcast(models.MsgJobProgress, progressOf(job))
	}

	job.CompletedTasks = int(s.completed.Load())
	status := models.JobCompleted
	if halt() && job.CompletedTasks < job.TotalTasks {
		status = models.JobPaused
	}
	s.finish(ctx, job, status, nil)
	log.Info("Simulation finished",
		"status", status,
		"completed", job.CompletedTasks,
		"total", job.TotalTasks)
	return s.snapshot(job), nil
}

// RunDraw plays every strategy against one draw without a job record
func (s *SimulationService) RunDraw(ctx context.Context, drawNumber, ticketsPerDraw int) (*DrawRunResult, error) {
	tickets, err := s.ticketCount(ticketsPerDraw)
	if err != nil {
		return nil, err
	}
	draw, err := s.draws.GetDraw(ctx, drawNumber)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFoundf("draw %d not found", drawNumber)
		}
		return nil, err
	}
	history, err := s.draws.ListDraws(ctx)
	if err != nil {
		return nil, err
	}

	result := &DrawRunResult{DrawNumber: drawNumber}
	var tasks []task
	for _, st := range s.registry.All() {
		exists, err := s.repo.ResultExists(ctx, st.Key, drawNumber)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}
		tasks = append(tasks, task{strategy: st, draw: *draw})
	}
	s.recorder.TaskSkipped(result.Skipped)

	var done atomic.Int64
	processed, failed := s.execute(ctx, tasks, history, tickets, &done, func() bool { return ctx.Err() != nil })
	result.Processed = processed
	result.Failed = failed

	s.log.Info("Draw simulated",
		"draw", drawNumber,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

// execute runs tasks on a bounded pool and blocks until the submitted ones finish.
// done is incremented once per successful task.
func (s *SimulationService) execute(ctx context.Context, tasks []task, history []models.Draw, tickets int, done *atomic.Int64, halt func() bool) (processed, failed int) {
	workers := min(runtime.NumCPU(), s.opts.MaxWorkers, len(tasks))
	if workers < 1 {
		return 0, 0
	}

	var ok, bad atomic.Int64
	queue := make(chan task)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range queue {
				if err := s.runTask(ctx, t, history, tickets); err != nil {
					bad.Add(1)
					s.recorder.TaskFailed(t.strategy.Key)
					s.log.Error("Simulation task failed",
						"strategy", t.strategy.Key,
						"draw", t.draw.DrawNumber,
						"error", err)
					continue
				}
				ok.Add(1)
				done.Add(1)
			}
		}()
	}

	for _, t := range tasks {
		if halt() {
			break
		}
		queue <- t
	}
	close(queue)
	wg.Wait()
	return int(ok.Load()), int(bad.Load())
}

// runTask simulates one strategy against one draw and stores the aggregate
func (s *SimulationService) runTask(ctx context.Context, t task, history []models.Draw, tickets int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internalf("strategy %s panicked: %v", t.strategy.Key, r)
		}
	}()

	start := time.Now()
	sctx := strategy.ContextFor(t.draw.DrawNumber, history)
	rng := strategy.NewRand()

	var tally lotto.Tally
	for i := 0; i < tickets; i++ {
		tally.Add(t.strategy.GenerateWith(sctx, rng), t.draw)
	}

	if _, err := s.repo.SaveResult(ctx, tally.Result(t.strategy.Key, t.draw.DrawNumber)); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	s.recorder.TaskExecuted(t.strategy.Key, tickets, time.Since(start))
	return nil
}

// Status returns the live counter and the current or most recent job
func (s *SimulationService) Status(ctx context.Context) (*SimulationStatus, error) {
	status := &SimulationStatus{Running: s.active.Load()}

	s.mu.Lock()
	if s.job != nil {
		job := *s.job
		status.Job = &job
	}
	s.mu.Unlock()

	if status.Job == nil {
		job, err := s.repo.LatestJob(ctx)
		if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		status.Job = job
	}

	if status.Job == nil {
		return status, nil
	}
	status.CompletedTasks = int64(status.Job.CompletedTasks)
	if status.Running {
		status.CompletedTasks = s.completed.Load()
		status.Job.CompletedTasks = int(status.CompletedTasks)
	}
	status.ProgressPercent = status.Job.ProgressPercent()
	return status, nil
}

func (s *SimulationService) persist(ctx context.Context, job *models.SimulationJob) {
	if err := s.repo.UpdateJob(context.WithoutCancel(ctx), *job); err != nil {
		s.log.Error("Failed to update job", "job_id", job.ID, "error", err)
	}
	s.setJob(job)
}

func (s *SimulationService) finish(ctx context.Context, job *models.SimulationJob, status models.JobStatus, cause error) {
	now := time.Now().UTC()
	job.Status = status
	job.CompletedAt = &now
	if cause != nil {
		job.ErrorMessage = cause.Error()
	}
	s.persist(ctx, job)
	s.recorder.JobFinished(status)
	s.broadcast(models.MsgJobFinished, progressOf(job))
}

func (s *SimulationService) setJob(job *models.SimulationJob) {
	cp := *job
	s.mu.Lock()
	s.job = &cp
	s.mu.Unlock()
}

func (s *SimulationService) snapshot(job *models.SimulationJob) *models.SimulationJob {
	cp := *job
	return &cp
}

func (s *SimulationService) broadcast(msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(msgType, payload)
	}
}

func progressOf(job *models.SimulationJob) JobProgress {
	return JobProgress{
		JobID:           job.ID,
		Status:          job.Status,
		CompletedTasks:  job.CompletedTasks,
		TotalTasks:      job.TotalTasks,
		CurrentStrategy: job.CurrentStrategy,
		ProgressPercent: job.ProgressPercent(),
	}
}
