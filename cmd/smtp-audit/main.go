// Package main is the entry point for the bulk SMTP credential auditor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/audittools/smtp-audit/internal/config"
	"github.com/audittools/smtp-audit/internal/dispatch"
	"github.com/audittools/smtp-audit/internal/limiter"
	"github.com/audittools/smtp-audit/internal/probe"
	"github.com/audittools/smtp-audit/internal/record"
	"github.com/audittools/smtp-audit/internal/report"
)

const banner = `
   ___ __  __ _____ ___     _   _   _ ___ ___ _____
  / __|  \/  |_   _| _ \   /_\ | | | | _ \_ _|_   _|
  \__ \ |\/| | | | |  _/  / _ \ |_| | | | | |  | |
  |___/_|  |_| |_| |_|   /_/ \_\___/|___/___| |_|

  Bulk SMTP credential auditor - tries 587 (STARTTLS) then 465 (SSL)
`

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	recipient := flag.String("to", config.DefaultRecipient, "recipient address for the test message")
	dryRun := flag.Bool("dry-run", false, "only authenticate, do not send the test message")
	workers := flag.Int("workers", config.DefaultWorkers, "number of concurrent workers (1 = sequential)")
	timeout := flag.Int("timeout", config.DefaultTimeoutSeconds, "per-step network timeout in seconds")
	rateLimit := flag.Float64("rate", 0, "global rate limit in attempts per second (0 = unlimited)")
	noColor := flag.Bool("no-color", false, "disable colored console output")
	insecure := flag.Bool("insecure", false, "skip TLS certificate verification")
	quiet := flag.Bool("quiet", false, "suppress banner and per-record output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <credentials file>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Input format: one record per line, host|username|password|from\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Explicitly set flags override both file and environment values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "to":
			cfg.Audit.Recipient = *recipient
		case "dry-run":
			cfg.Audit.DryRun = *dryRun
		case "workers":
			cfg.Audit.Workers = *workers
		case "timeout":
			cfg.Audit.TimeoutSeconds = *timeout
		case "rate":
			cfg.Audit.Rate = *rateLimit
		case "no-color":
			cfg.Audit.NoColor = *noColor
		case "insecure":
			cfg.Audit.Insecure = *insecure
		}
	})

	setupLogger(cfg.Logging.Level)
	if cfg.Audit.NoColor {
		color.NoColor = true
	}

	inputPath := flag.Arg(0)
	if inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	records, skipped, err := record.ReadFile(inputPath)
	if err != nil {
		slog.Error("failed to read credentials file", "path", inputPath, "error", err)
		os.Exit(1)
	}
	if skipped > 0 {
		slog.Warn("skipped unparsable lines", "path", inputPath, "count", skipped)
	}
	if len(records) == 0 {
		slog.Error("no parsable records in input file", "path", inputPath)
		os.Exit(1)
	}

	if !*quiet {
		fmt.Println(color.GreenString(banner))
		fmt.Printf("Starting audit: %d entries -> recipient: %s\n", len(records), cfg.Audit.Recipient)
	}

	files := report.NewFiles(".", time.Now().Format("20060102_150405"))
	writer, err := report.NewWriter(files)
	if err != nil {
		slog.Error("failed to create result files", "error", err)
		os.Exit(1)
	}

	prober := probe.New(probe.Config{
		DryRun:    cfg.Audit.DryRun,
		Recipient: cfg.Audit.Recipient,
		Timeout:   time.Duration(cfg.Audit.TimeoutSeconds) * time.Second,
		HELO:      cfg.Audit.HELO,
		Insecure:  cfg.Audit.Insecure,
	})

	pool := &dispatch.Pool{
		Attempt: prober.Attempt,
		Limiter: limiter.New(cfg.Audit.Rate),
		Workers: cfg.Audit.Workers,
	}

	progress, finishProgress := report.NewProgress(len(records), os.Stderr)
	pool.OnProgress = progress

	// SIGINT/SIGTERM cancels the run; partial results are still written.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, stopping", "signal", sig)
		cancel()
	}()

	completed := 0
	for out := range pool.Run(ctx, records) {
		completed++
		if err := writer.Add(out); err != nil {
			slog.Error("failed to record outcome", "host", out.Host, "error", err)
		}
		if !*quiet {
			report.Line(os.Stdout, out, completed, len(records), cfg.Audit.DryRun)
		}
	}
	finishProgress()

	succeeded, failed := writer.Counts()
	if err := writer.Close(); err != nil {
		slog.Error("failed to finalize result files", "error", err)
		os.Exit(1)
	}

	report.Summary{
		Total:     len(records),
		Succeeded: succeeded,
		Failed:    failed,
		Skipped:   skipped,
		Files:     files,
	}.Render(os.Stdout)
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output on stderr
// and the specified log level. Stdout is reserved for run output.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
