package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/lottorank/internal/auth"
	"github.com/abrezinsky/lottorank/internal/config"
	"github.com/abrezinsky/lottorank/internal/drawfeed"
	"github.com/abrezinsky/lottorank/internal/handlers"
	"github.com/abrezinsky/lottorank/internal/logger"
	"github.com/abrezinsky/lottorank/internal/metrics"
	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/repository"
	"github.com/abrezinsky/lottorank/internal/scheduler"
	"github.com/abrezinsky/lottorank/internal/services"
	"github.com/abrezinsky/lottorank/internal/strategy"
	"github.com/abrezinsky/lottorank/internal/websocket"
)

const (
	shutdownTimeout    = 10 * time.Second
	sessionPurgePeriod = time.Hour
)

// App holds all application dependencies
type App struct {
	log      logger.Logger
	cfg      *config.Config
	repo     *repository.Repository
	feed     *drawfeed.Feed
	draws    repository.DrawProvider
	auth     *auth.Auth
	hub      *websocket.Hub
	metrics  *metrics.Collector
	handlers *handlers.Handlers

	Simulation *services.SimulationService
	Ranking    *services.RankingService
	Settings   *services.SettingsService
	Scheduler  *scheduler.Scheduler
}

// New opens storage and wires services, the websocket hub and the scheduler.
// The scheduler does not fire until Start or Run is called.
func New(ctx context.Context, log logger.Logger, cfg *config.Config, adminAuth *auth.Auth) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	repo, err := repository.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	a := &App{log: log, cfg: cfg, repo: repo, draws: repo, auth: adminAuth}
	if cfg.Draws.Source == config.SourcePostgres {
		feed, err := drawfeed.Open(ctx, cfg.Draws.DSN)
		if err != nil {
			repo.Close()
			return nil, err
		}
		a.feed = feed
		a.draws = feed
	}

	// A crash leaves the last job RUNNING; it is resumable, not running.
	if n, err := repo.PauseRunningJobs(ctx, "interrupted by restart"); err != nil {
		log.Warn("Failed to pause interrupted jobs", "error", err)
	} else if n > 0 {
		log.Info("Paused interrupted simulation jobs", "count", n)
	}

	registry := strategy.Default()
	a.metrics = metrics.NewCollector()
	a.Settings = services.NewSettingsService(log, repo)
	a.Simulation = services.NewSimulationService(log, a.draws, repo, registry, services.SimulationOptions{
		TicketsPerDraw: cfg.Simulation.TicketsPerDraw,
		MaxWorkers:     cfg.Simulation.MaxWorkers,
	})
	a.Ranking = services.NewRankingService(log, repo, a.Settings, registry, services.RankingOptions{
		BaseURL: cfg.Server.BaseURL,
	})
	a.Simulation.SetRecorder(a.metrics)
	a.Ranking.SetRecorder(a.metrics)

	a.hub = websocket.New(log, a.Simulation)
	a.hub.Start()
	a.Simulation.SetBroadcaster(a.hub)
	a.Ranking.SetBroadcaster(a.hub)

	a.Scheduler, err = scheduler.New(log, a.draws, a.Simulation, a.Ranking, a.Settings, scheduler.Options{
		Enabled:        cfg.Scheduler.Enabled,
		Spec:           cfg.Scheduler.Cron,
		Location:       loc,
		TicketsPerDraw: cfg.Simulation.TicketsPerDraw,
	})
	if err != nil {
		a.hub.Stop()
		a.closeStores()
		return nil, err
	}

	a.handlers = handlers.New(handlers.Deps{
		Simulation:     a.Simulation,
		Ranking:        a.Ranking,
		Settings:       a.Settings,
		Scheduler:      a.Scheduler,
		Registry:       registry,
		Auth:           adminAuth,
		Hub:            a.hub,
		Metrics:        a.metrics.Handler(),
		Log:            httpLoggerOf(log),
		DefaultTickets: cfg.Simulation.TicketsPerDraw,
	})
	return a, nil
}

func httpLoggerOf(log logger.Logger) handlers.HTTPLogger {
	if l, ok := log.(handlers.HTTPLogger); ok {
		return l
	}
	return handlers.NoopHTTPLogger{}
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Metrics returns the Prometheus collector shared by the services
func (a *App) Metrics() *metrics.Collector {
	return a.metrics
}

// Start launches the weekly scheduler
func (a *App) Start() {
	a.Scheduler.Start()
}

// Close stops background work and releases storage. A running backfill is
// asked to stop first so its job is left PAUSED.
func (a *App) Close() error {
	if a.Simulation.IsRunning() {
		if err := a.Simulation.Stop(context.Background()); err == nil {
			a.waitIdle(shutdownTimeout)
		}
	}
	a.Scheduler.Stop()
	a.hub.Stop()
	return a.closeStores()
}

func (a *App) closeStores() error {
	var errs []error
	if a.feed != nil {
		errs = append(errs, a.feed.Close())
	}
	errs = append(errs, a.repo.Close())
	return stderrors.Join(errs...)
}

func (a *App) waitIdle(limit time.Duration) {
	deadline := time.Now().Add(limit)
	for a.Simulation.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
}

// BaseURL returns the public URL used in logs, QR codes and the browser shortcut
func (a *App) BaseURL(ctx context.Context) string {
	if url, err := a.Settings.GetBaseURL(ctx); err == nil && url != "" {
		return url
	}
	return fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)
}

// Backfill simulates every draw and then publishes every leaderboard. It is
// the one-shot mode of the command. Nothing is ranked unless every pair was
// simulated.
func (a *App) Backfill(ctx context.Context, ticketsPerDraw int) (*models.SimulationJob, int, error) {
	job, err := a.Simulation.RunBackfill(ctx, ticketsPerDraw)
	if err != nil {
		return job, 0, err
	}
	if job.Status != models.JobCompleted {
		return job, 0, nil
	}
	if job.CompletedTasks < job.TotalTasks {
		return job, 0, fmt.Errorf("%d of %d tasks missing: %w",
			job.TotalTasks-job.CompletedTasks, job.TotalTasks, services.ErrSimulationIncomplete)
	}

	latest, err := a.draws.LatestDraw(ctx)
	if err != nil {
		return job, 0, err
	}
	ranked, err := a.Ranking.Backfill(ctx, 1, latest.DrawNumber)
	return job, ranked, err
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context, addr string) error {
	if a.cfg.Server.BaseURL != "" {
		a.setDefaultBaseURL(ctx, a.cfg.Server.BaseURL)
	} else {
		ip := getPreferredIP(realNetworkProvider{})
		a.setDefaultBaseURL(ctx, fmt.Sprintf("http://%s%s", ip, addr))
	}

	a.Start()
	go a.purgeSessions(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		baseURL := a.BaseURL(ctx)
		a.log.Info("Server starting", "url", baseURL)
		a.log.Info("Leaderboard URL", "url", baseURL+"/api/rankings/current")
		if next := a.Scheduler.NextRun(); !next.IsZero() {
			a.log.Info("Next scheduled run", "at", next)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) purgeSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionPurgePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.auth.PurgeExpired(); n > 0 {
				a.log.Debug("Purged expired sessions", "count", n)
			}
		}
	}
}

// setDefaultBaseURL stores baseURL unless a usable value is already set.
// Localhost values are replaced since QR codes must resolve on other devices.
func (a *App) setDefaultBaseURL(ctx context.Context, baseURL string) {
	existing, _ := a.Settings.GetBaseURL(ctx)

	if existing == "" || strings.Contains(existing, "localhost") {
		if err := a.Settings.SetBaseURL(ctx, baseURL); err != nil {
			a.log.Warn("Failed to set default base_url", "error", err)
		} else {
			a.log.Info("Default base URL set", "url", baseURL)
		}
	}
}

type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IPv4 address for LAN access, preferring
// private ranges and falling back to "localhost".
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
