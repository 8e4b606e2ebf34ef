// Package config loads lottorank settings from a YAML file with
// LOTTORANK_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // scheduler timezones on hosts without zoneinfo

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Draw sources
const (
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

const envPrefix = "LOTTORANK_"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Draws      DrawsConfig      `yaml:"draws"`
	Simulation SimulationConfig `yaml:"simulation"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Log        LogConfig        `yaml:"log"`
	Admin      AdminConfig      `yaml:"admin"`
}

type ServerConfig struct {
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DrawsConfig selects where draw history is read from. The sqlite source
// reads the draws table of the main database.
type DrawsConfig struct {
	Source string `yaml:"source"`
	DSN    string `yaml:"dsn"`
}

type SimulationConfig struct {
	TicketsPerDraw int `yaml:"tickets_per_draw"`
	MaxWorkers     int `yaml:"max_workers"`
}

type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AdminConfig struct {
	Password string `yaml:"password"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8081},
		Database: DatabaseConfig{Path: "lottorank.db"},
		Draws:    DrawsConfig{Source: SourceSQLite},
		Simulation: SimulationConfig{
			TicketsPerDraw: 100_000,
			MaxWorkers:     8,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Cron:     "30 21 * * SAT",
			Timezone: "Asia/Seoul",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from LOTTORANK_* variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"BASE_URL":           &c.Server.BaseURL,
		"DB":                 &c.Database.Path,
		"DRAWS_SOURCE":       &c.Draws.Source,
		"DRAWS_DSN":          &c.Draws.DSN,
		"SCHEDULER_CRON":     &c.Scheduler.Cron,
		"SCHEDULER_TIMEZONE": &c.Scheduler.Timezone,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
		"ADMIN_PASSWORD":     &c.Admin.Password,
	}
	for name, dst := range str {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":             &c.Server.Port,
		"TICKETS_PER_DRAW": &c.Simulation.TicketsPerDraw,
		"MAX_WORKERS":      &c.Simulation.MaxWorkers,
	}
	for name, dst := range ints {
		v, ok := lookup(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}

	if v, ok := lookup(envPrefix + "SCHEDULER_ENABLED"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sSCHEDULER_ENABLED: %w", envPrefix, err)
		}
		c.Scheduler.Enabled = b
	}
	return nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Draws.Source {
	case SourceSQLite:
	case SourcePostgres:
		if c.Draws.DSN == "" {
			return fmt.Errorf("draws.dsn is required for the postgres source")
		}
	default:
		return fmt.Errorf("draws.source %q must be %s or %s", c.Draws.Source, SourceSQLite, SourcePostgres)
	}
	if c.Simulation.TicketsPerDraw <= 0 {
		return fmt.Errorf("simulation.tickets_per_draw must be positive")
	}
	if c.Simulation.MaxWorkers <= 0 {
		return fmt.Errorf("simulation.max_workers must be positive")
	}
	if _, err := cron.ParseStandard(c.Scheduler.Cron); err != nil {
		return fmt.Errorf("scheduler.cron: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	return nil
}

// Location resolves the scheduler timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Scheduler.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Scheduler.Timezone)
}
