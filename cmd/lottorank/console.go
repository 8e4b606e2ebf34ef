package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/abrezinsky/lottorank/internal/logger"
	"github.com/abrezinsky/lottorank/internal/services"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

// simulationControl is the part of the simulation service the console drives
type simulationControl interface {
	Status(ctx context.Context) (*services.SimulationStatus, error)
	Stop(ctx context.Context) error
}

// console maps single key presses to server actions
type console struct {
	out            io.Writer
	log            *logger.SlogLogger
	sim            simulationControl
	leaderboardURL func() string
	open           func(url string) error
	quit           func()
}

var levelCycle = map[string]string{
	"DEBUG": "info",
	"INFO":  "warn",
	"WARN":  "error",
	"ERROR": "debug",
}

// cycleLogLevel cycles debug -> info -> warn -> error -> debug
func (c *console) cycleLogLevel() {
	next, ok := levelCycle[c.log.GetLevel().String()]
	if !ok {
		next = "info"
	}
	c.log.SetLevel(logger.ParseLevel(next))
	fmt.Fprintf(c.out, "%sLog level: %s%s%s\n", green, yellow, next, reset)
}

func (c *console) printHelp() {
	fmt.Fprintf(c.out, "\n%s%s  Keyboard shortcuts:%s\n", bold, green, reset)
	fmt.Fprintf(c.out, "    %ss%s      - Show simulation status\n", cyan, reset)
	fmt.Fprintf(c.out, "    %sx%s      - Stop the running backfill\n", cyan, reset)
	fmt.Fprintf(c.out, "    %so%s      - Open leaderboard in browser\n", cyan, reset)
	fmt.Fprintf(c.out, "    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Fprintf(c.out, "    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Fprintf(c.out, "    %sq%s      - Quit server\n", cyan, reset)
	fmt.Fprintf(c.out, "    %s?%s      - Show this help\n\n", cyan, reset)
}

func (c *console) printStatus() {
	status, err := c.sim.Status(context.Background())
	if err != nil {
		fmt.Fprintf(c.out, "%sStatus unavailable: %v%s\n", red, err, reset)
		return
	}
	if status.Job == nil {
		fmt.Fprintf(c.out, "%sNo simulation has run yet%s\n", yellow, reset)
		return
	}
	job := status.Job
	state := string(job.Status)
	if status.Running {
		state = "RUNNING"
	}
	fmt.Fprintf(c.out, "%sJob %d %s%s: %d/%d tasks (%.1f%%)",
		cyan, job.ID, state, reset, status.CompletedTasks, job.TotalTasks, status.ProgressPercent)
	if job.CurrentStrategy != "" && status.Running {
		fmt.Fprintf(c.out, " at %s", job.CurrentStrategy)
	}
	fmt.Fprintln(c.out)
}

// handle runs the action bound to key and reports whether the console should exit
func (c *console) handle(key byte) bool {
	switch strings.ToLower(string(key)) {
	case "s":
		c.printStatus()
	case "x":
		if err := c.sim.Stop(context.Background()); err != nil {
			fmt.Fprintf(c.out, "%s%v%s\n", yellow, err, reset)
		} else {
			fmt.Fprintf(c.out, "%sStop requested; the job will pause after in-flight tasks%s\n", yellow, reset)
		}
	case "o":
		url := c.leaderboardURL()
		fmt.Fprintf(c.out, "%sOpening %s...%s\n", cyan, url, reset)
		if err := c.open(url); err != nil {
			fmt.Fprintf(c.out, "%sError opening browser: %v%s\n", red, err, reset)
		}
	case "h":
		if c.log.IsHTTPLoggingEnabled() {
			c.log.DisableHTTPLogging()
			fmt.Fprintf(c.out, "%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			c.log.EnableHTTPLogging()
			fmt.Fprintf(c.out, "%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		c.cycleLogLevel()
	case "?":
		c.printHelp()
	case "q", "\x03":
		fmt.Fprintf(c.out, "%sShutting down server...%s\n", yellow, reset)
		c.quit()
		return true
	}
	return false
}

// run reads keys from r until quit or EOF
func (c *console) run(r io.Reader) {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		if c.handle(b) {
			return
		}
	}
}
