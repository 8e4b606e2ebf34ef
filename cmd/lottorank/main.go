package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abrezinsky/lottorank/internal/app"
	"github.com/abrezinsky/lottorank/internal/auth"
	"github.com/abrezinsky/lottorank/internal/browser"
	"github.com/abrezinsky/lottorank/internal/config"
	"github.com/abrezinsky/lottorank/internal/logger"
)

const (
	clearLine = "\033[2K"
	moveUp    = "\033[%dA"
)

var (
	version = "dev"
)

// showBanner prints the logo, then rolls six balls into place unless skipDraw
func showBanner(skipDraw bool) {
	width := 62
	border := strings.Repeat("═", width)

	logo := []string{
		"      _          _   _        ____             _           ",
		"     | |    ___ | |_| |_ ___ |  _ \\ __ _ _ __ | | __       ",
		"     | |   / _ \\| __| __/ _ \\| |_) / _` | '_ \\| |/ /       ",
		"     | |__| (_) | |_| || (_) |  _ < (_| | | | |   <        ",
		"     |_____\\___/ \\__|\\__\\___/|_| \\_\\__,_|_| |_|_|\\_\\       ",
		"                                                           ",
	}

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Printf("  %s║%s%-62s%s║%s\n", cyan, yellow, line, cyan, reset)
	}

	if skipDraw {
		fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
		return
	}

	fmt.Printf("  %s╠%s╣%s\n", cyan, border, reset)
	balls := rand.Perm(45)[:6]
	var drawn, plain []string
	for frame := 0; frame <= len(balls); frame++ {
		if frame > 0 {
			fmt.Printf(moveUp, 2)
		}
		row, text := strings.Join(drawn, "  "), strings.Join(plain, "  ")
		if frame < len(balls) {
			spin := rand.IntN(45) + 1
			row += fmt.Sprintf("  %s(%02d)%s", red, spin, reset)
			text += fmt.Sprintf("  (%02d)", spin)
		}
		pad := strings.Repeat(" ", max(0, width-3-len(text)))
		fmt.Printf("%s  %s║%s   %s%s%s║%s\n", clearLine, cyan, reset, row, pad, cyan, reset)
		fmt.Printf("%s  %s╚%s╝%s\n", clearLine, cyan, border, reset)
		if frame < len(balls) {
			drawn = append(drawn, fmt.Sprintf("%s[%02d]%s", green, balls[frame]+1, reset))
			plain = append(plain, fmt.Sprintf("[%02d]", balls[frame]+1))
		}
		time.Sleep(120 * time.Millisecond)
	}
	fmt.Println()
}

func main() {
	configPath := flag.String("config", "", "YAML config file (LOTTORANK_* env vars still apply)")
	port := flag.Int("port", 0, "HTTP server port (default 8081)")
	dbPath := flag.String("db", "", "SQLite database path (default \"lottorank.db\")")
	adminPw := flag.String("adminpw", "", "Admin password (auto-generated if not set)")
	logLevel := flag.String("loglevel", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("logformat", "", "Log format (text, json)")
	noAnimate := flag.Bool("noanimate", false, "Show logo only, skip the draw animation")
	noKeyboard := flag.Bool("nokeyboard", false, "Disable keyboard shortcuts")
	backfill := flag.Bool("backfill", false, "Simulate every draw, publish rankings and exit")
	tickets := flag.Int("tickets", 0, "Tickets per strategy per draw (overrides config)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `LottoRank - lottery strategy simulation and weekly rankings

Usage:
  lottorank [options]

Options:
  -config str     YAML config file
  -port int       HTTP server port (default 8081)
  -db string      SQLite database path (default "lottorank.db")
  -adminpw str    Admin password (auto-generated if not set)
  -loglevel str   Log level: debug, info, warn, error (default "info")
  -logformat str  Log format: text, json (default "text")
  -tickets int    Tickets per strategy per draw (default 100000)
  -backfill       Simulate every draw, publish rankings and exit
  -noanimate      Show logo only, skip the draw animation
  -nokeyboard     Disable keyboard shortcuts
  -version        Show version and exit
  -help           Show this help message

Keyboard Shortcuts (when enabled):
  s              Show simulation status
  x              Stop the running backfill
  o              Open leaderboard in browser
  h              Toggle HTTP request logging
  l              Cycle log level (debug → info → warn → error)
  q              Quit server
  ?              Show keyboard help

Examples:
  lottorank                               # Serve on port 8081 with lottorank.db
  lottorank -config /etc/lottorank.yaml   # Use a config file
  lottorank -backfill -tickets 10000      # One-shot backfill with small samples
  lottorank -port 80 -db prod.db          # Production example

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("lottorank %s\n", version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	overrides{
		port: *port, db: *dbPath, adminPw: *adminPw, logLevel: *logLevel,
		logFormat: *logFormat, tickets: *tickets,
	}.apply(cfg)

	appLog := logger.NewWithOptions(os.Stderr, logger.ParseFormat(cfg.Log.Format), logger.ParseLevel(cfg.Log.Level))

	if !*backfill {
		showBanner(*noAnimate)
	}

	password := cfg.Admin.Password
	if password == "" {
		password = auth.GeneratePassword()
	}
	adminAuth := auth.New(password)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, appLog, cfg, adminAuth)
	if err != nil {
		appLog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	if *backfill {
		os.Exit(runBackfill(ctx, a, appLog, cfg.Simulation.TicketsPerDraw))
	}

	appLog.Info("Admin password", "password", password)

	if !*noKeyboard {
		c := &console{
			out:            os.Stdout,
			log:            appLog,
			sim:            a.Simulation,
			leaderboardURL: func() string { return browser.LeaderboardURL(a.BaseURL(context.Background())) },
			open:           browser.Open,
			quit:           stop,
		}
		c.printHelp()
		go listenForKeyboard(c)
	} else {
		fmt.Printf("\n%sKeyboard shortcuts disabled (use -nokeyboard=false to enable)%s\n\n", yellow, reset)
	}

	runErr := a.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port))
	if err := a.Close(); err != nil {
		appLog.Warn("Shutdown finished with errors", "error", err)
	}
	if runErr != nil {
		appLog.Error("Server stopped", "error", runErr)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overrides holds command-line values; zero values leave the config untouched
type overrides struct {
	port      int
	db        string
	adminPw   string
	logLevel  string
	logFormat string
	tickets   int
}

func (o overrides) apply(cfg *config.Config) {
	if o.port != 0 {
		cfg.Server.Port = o.port
	}
	if o.db != "" {
		cfg.Database.Path = o.db
	}
	if o.adminPw != "" {
		cfg.Admin.Password = o.adminPw
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.tickets != 0 {
		cfg.Simulation.TicketsPerDraw = o.tickets
	}
}

// runBackfill runs the one-shot mode and returns the process exit code
func runBackfill(ctx context.Context, a *app.App, log logger.Logger, tickets int) int {
	defer a.Close()

	// SIGINT pauses the job instead of abandoning it
	go func() {
		<-ctx.Done()
		if a.Simulation.IsRunning() {
			log.Info("Stopping backfill after in-flight tasks")
			a.Simulation.Stop(context.Background())
		}
	}()

	start := time.Now()
	job, ranked, err := a.Backfill(context.Background(), tickets)
	if err != nil {
		log.Error("Backfill failed", "error", err)
		return 1
	}
	log.Info("Backfill finished",
		"job", job.ID,
		"status", job.Status,
		"tasks", job.CompletedTasks,
		"ranked_draws", ranked,
		"duration", time.Since(start).Round(time.Millisecond).String())
	return 0
}
