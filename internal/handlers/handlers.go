package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/abrezinsky/lottorank/internal/auth"
	"github.com/abrezinsky/lottorank/internal/scheduler"
	"github.com/abrezinsky/lottorank/internal/services"
	"github.com/abrezinsky/lottorank/internal/strategy"
	"github.com/abrezinsky/lottorank/internal/websocket"
)

// Scheduler is the manual-trigger surface of the weekly scheduler
type Scheduler interface {
	RunNow(ctx context.Context) (*scheduler.RunReport, error)
	Enabled() bool
	NextRun() time.Time
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Simulation services.SimulationServicer
	Ranking    services.RankingServicer
	Settings   services.SettingsServicer
	Scheduler  Scheduler
	Registry   *strategy.Registry
	Auth       *auth.Auth
	Hub        *websocket.Hub
	Metrics    http.Handler
	Log        HTTPLogger

	// defaultTickets is used when neither the request nor settings name a count
	defaultTickets int
}

// Deps groups the collaborators passed to New
type Deps struct {
	Simulation     services.SimulationServicer
	Ranking        services.RankingServicer
	Settings       services.SettingsServicer
	Scheduler      Scheduler
	Registry       *strategy.Registry
	Auth           *auth.Auth
	Hub            *websocket.Hub
	Metrics        http.Handler
	Log            HTTPLogger
	DefaultTickets int
}

// New creates a new Handlers instance with all dependencies
func New(d Deps) *Handlers {
	tickets := d.DefaultTickets
	if tickets <= 0 {
		tickets = services.DefaultTicketsPerDraw
	}
	log := d.Log
	if log == nil {
		log = NoopHTTPLogger{}
	}
	return &Handlers{
		Simulation:     d.Simulation,
		Ranking:        d.Ranking,
		Settings:       d.Settings,
		Scheduler:      d.Scheduler,
		Registry:       d.Registry,
		Auth:           d.Auth,
		Hub:            d.Hub,
		Metrics:        d.Metrics,
		Log:            log,
		defaultTickets: tickets,
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// NewForTesting creates Handlers with a known admin password and no hub,
// scheduler or metrics
func NewForTesting(
	simulation services.SimulationServicer,
	ranking services.RankingServicer,
	settings services.SettingsServicer,
	registry *strategy.Registry,
) *Handlers {
	return New(Deps{
		Simulation: simulation,
		Ranking:    ranking,
		Settings:   settings,
		Registry:   registry,
		Auth:       auth.New("test-password"),
	})
}
