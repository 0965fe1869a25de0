package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"resmon/internal/config"
	"resmon/internal/export"
	"resmon/internal/logging"
	"resmon/internal/metrics"
	"resmon/internal/report"
	"resmon/internal/server"
	"resmon/internal/session"
	"resmon/internal/stats"
	"resmon/internal/store"
	"resmon/internal/tui"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) <= 1 {
		printUsage()
		return
	}

	command := strings.ToLower(os.Args[1])
	if handler, ok := commandHandlers()[command]; ok {
		handler()
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
	printUsage()
	os.Exit(1)
}

func commandHandlers() map[string]func() {
	return map[string]func(){
		"run":      runSession,
		"watch":    runWatch,
		"serve":    runServe,
		"report":   runReport,
		"export":   runExport,
		"sessions": runSessions,
		"delete":   runDelete,
		"version":  runVersion,
		"help":     printUsage,
		"--help":   printUsage,
		"-h":       printUsage,
	}
}

func runVersion() {
	fmt.Printf("resmon version %s\n", version)
}

// loadEnvironment loads config, builds the logger, the metrics source,
// the store, and the engine. Shared by every sampling command.
func loadEnvironment() (config.Config, *logging.Logger, *session.Engine, *store.FileStore) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg)

	st, err := store.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session store: %v\n", err)
		os.Exit(1)
	}

	source := metrics.NewSystemSource(cfg.Metrics.DiskPath, cfg.Metrics.EnableGPU, logger)
	engine := session.NewEngine(source, st, logger)

	return cfg, logger, engine, st
}

func buildLogger(cfg config.Config) *logging.Logger {
	level := logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.File != "" {
		logger, err := logging.NewFileLogger(level, cfg.Logging.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: falling back to stderr logging: %v\n", err)
			return logging.NewLogger(level)
		}
		return logger
	}
	return logging.NewLogger(level)
}

// sessionConfig resolves duration and interval from flags with config
// defaults, e.g. `resmon run --duration 120 --interval 2`.
func sessionConfig(cfg config.Config, args []string) session.Config {
	duration := cfg.Session.DurationSeconds
	interval := cfg.Session.IntervalSeconds

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--duration", "-d":
			if i+1 < len(args) {
				if v, err := strconv.ParseFloat(args[i+1], 64); err == nil {
					duration = v
				}
				i++
			}
		case "--interval", "-i":
			if i+1 < len(args) {
				if v, err := strconv.ParseFloat(args[i+1], 64); err == nil {
					interval = v
				}
				i++
			}
		}
	}

	return session.Config{
		Duration: time.Duration(duration * float64(time.Second)),
		Interval: time.Duration(interval * float64(time.Second)),
	}
}

// runSession runs one sampling session to completion, printing the
// report when done. Ctrl+C stops early and still persists the data.
func runSession() {
	cfg, logger, engine, _ := loadEnvironment()
	defer logger.Close()

	sessCfg := sessionConfig(cfg, os.Args[2:])
	id, err := engine.Start(sessCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting session: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Session %s started (%s for %s)\n", id, sessCfg.Interval, sessCfg.Duration)
	fmt.Println("Press Ctrl+C to stop early.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	doneCh := make(chan error, 1)
	go func() { doneCh <- engine.Wait() }()

	var waitErr error
	select {
	case <-sigCh:
		fmt.Println("\nStopping session...")
		waitErr = engine.Stop()
	case waitErr = <-doneCh:
	}

	if waitErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", waitErr)
	}

	sess := engine.Current()
	fmt.Println()
	fmt.Println(report.Render(sess, stats.Compute(sess.Measurements)))
}

// runWatch runs a session with the live terminal view
func runWatch() {
	cfg, logger, engine, _ := loadEnvironment()
	defer logger.Close()

	sessCfg := sessionConfig(cfg, os.Args[2:])
	if _, err := engine.Start(sessCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting session: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(engine); err != nil {
		fmt.Fprintf(os.Stderr, "Error running live view: %v\n", err)
		os.Exit(1)
	}
	engine.Stop()

	sess := engine.Current()
	fmt.Println(report.Render(sess, stats.Compute(sess.Measurements)))
}

// runServe exposes the engine over HTTP until interrupted
func runServe() {
	cfg, logger, engine, st := loadEnvironment()
	defer logger.Close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := server.New(addr, engine, st, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	fmt.Printf("resmon serving on http://%s\n", addr)
	fmt.Println("Press Ctrl+C to shut down.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := engine.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		os.Exit(1)
	}
}

// runReport renders the report for a stored session
func runReport() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: resmon report <session-id>\n")
		os.Exit(1)
	}

	_, logger, _, st := loadEnvironment()
	defer logger.Close()

	sess, err := st.Load(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(report.Render(sess, stats.Compute(sess.Measurements)))
}

// runExport packages a stored session into a ZIP bundle
func runExport() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: resmon export <session-id> [--output <path>]\n")
		os.Exit(1)
	}

	_, logger, _, st := loadEnvironment()
	defer logger.Close()

	id := os.Args[2]
	sess, err := st.Load(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	outputPath := export.DefaultOutputPath(id)
	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--output" && i+1 < len(os.Args) {
			outputPath = os.Args[i+1]
			i++
		}
	}

	packager := export.NewPackager(version, logger)
	path, err := packager.CreateBundle(sess, outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating bundle: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Session bundle created: %s\n", path)
}

// runSessions lists stored sessions
func runSessions() {
	_, logger, _, st := loadEnvironment()
	defer logger.Close()

	metas, err := st.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing sessions: %v\n", err)
		os.Exit(1)
	}

	if len(metas) == 0 {
		fmt.Println("No stored sessions.")
		return
	}

	fmt.Printf("%-38s %-22s %-10s %-9s %s\n", "ID", "STARTED", "DURATION", "STATE", "SAMPLES")
	fmt.Println(strings.Repeat("-", 90))
	for _, m := range metas {
		fmt.Printf("%-38s %-22s %-10s %-9s %d\n",
			m.ID,
			m.StartTime.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.0fs", m.DurationSeconds),
			m.State,
			m.Samples)
	}
}

// runDelete removes a stored session
func runDelete() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: resmon delete <session-id>\n")
		os.Exit(1)
	}

	_, logger, _, st := loadEnvironment()
	defer logger.Close()

	if err := st.Delete(os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Session %s deleted\n", os.Args[2])
}

func printUsage() {
	fmt.Printf(`resmon - Bounded host resource monitoring (version %s)

Usage:
  resmon run [--duration <s>] [--interval <s>]    Run a sampling session and print the report
  resmon watch [--duration <s>] [--interval <s>]  Run a session with a live terminal view
  resmon serve                                    Expose the engine over HTTP and WebSocket
  resmon sessions                                 List stored sessions
  resmon report <session-id>                      Render the report for a stored session
  resmon export <session-id> [--output <path>]    Package a stored session as a ZIP bundle
  resmon delete <session-id>                      Delete a stored session
  resmon version                                  Print version information
  resmon help                                     Show this help message

Configuration is read from %s when present.
Defaults: 60s duration, 1s interval, sessions stored under ~/.resmon/sessions.
`, version, config.UserConfigPath())
}
