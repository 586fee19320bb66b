// Railbird turns per-video poker summary files into a single HTML
// report with clickable timestamps, and pushes it to a GitHub repo.
//
// Usage:
//
//	railbird report             Generate (and optionally publish) the report
//	railbird collect            Scan the channel for new videos to queue
//	railbird version            Print version and build information
//	railbird -o json version    Output version information as JSON
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/railbird-dev/railbird/internal/buildinfo"
	"github.com/railbird-dev/railbird/internal/collector"
	"github.com/railbird-dev/railbird/internal/config"
	"github.com/railbird-dev/railbird/internal/httpkit"
	"github.com/railbird-dev/railbird/internal/pipeline"
	"github.com/railbird-dev/railbird/internal/publish"
	"github.com/railbird-dev/railbird/internal/state"
	"github.com/railbird-dev/railbird/internal/youtube"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// main constructs the OS-level environment (context, stdio, argv) and
// delegates immediately to [run], keeping os.Exit and os.Args out of
// the application logic so the full lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the railbird command. Arguments are
// parsed by hand: the flag package relies on package-level globals
// (flag.CommandLine), which makes it impossible to call run()
// concurrently from tests, and the argument surface here is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	// Interrupts flow through the same ctx used by every component.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "report":
		return runReport(ctx, stdout, configPath)
	case "collect":
		return runCollect(ctx, stdout, configPath)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	// Print fields in a stable order for human readability.
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Railbird - Poker Video Summary Reports")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: railbird [flags] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  report       Generate the HTML report and push it to the configured repo")
	fmt.Fprintln(w, "  collect      Scan the channel for new videos to queue")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./railbird.yaml, ~/.config/railbird/railbird.yaml, /etc/railbird/railbird.yaml")
	return nil
}

// runReport handles the "railbird report" subcommand: load the summary
// documents, fetch metadata, render the report, publish when enabled.
func runReport(ctx context.Context, stdout io.Writer, configPath string) error {
	cfg, logger, err := setup(stdout, configPath)
	if err != nil {
		return err
	}

	yt := youtube.New(youtube.Config{
		APIKey:         cfg.YouTube.APIKey,
		MaxRetries:     cfg.YouTube.MaxRetries,
		RetryBaseDelay: time.Duration(cfg.YouTube.RetryBaseDelaySec) * time.Second,
	}, logger)

	p := &pipeline.Pipeline{
		YouTube: yt,
		Logger:  logger,
	}

	if cfg.Publish.Enabled {
		httpClient := httpkit.NewClient(
			httpkit.WithTimeout(30*time.Second),
			httpkit.WithUserAgent(buildinfo.UserAgent()),
		)
		pub, err := publish.New(httpClient, publish.Config{
			Token:   cfg.Publish.Token,
			Repo:    cfg.Publish.Repo,
			Branch:  cfg.Publish.Branch,
			Path:    cfg.Publish.Path,
			BaseURL: cfg.Publish.URL,
		}, logger)
		if err != nil {
			return err
		}
		p.Publisher = pub
	} else {
		logger.Info("publishing disabled, report stays local")
	}

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	p.Store = store

	var intro string
	if cfg.Report.IntroFile != "" {
		data, err := os.ReadFile(cfg.Report.IntroFile)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("read intro file: %w", err)
			}
			logger.Warn("intro file not found", "path", cfg.Report.IntroFile)
		} else {
			intro = string(data)
		}
	}

	res, err := p.Run(ctx, pipeline.Options{
		SummariesDir: cfg.Report.SummariesDir,
		OutputPath:   cfg.Report.OutputPath,
		Title:        cfg.Report.Title,
		Intro:        intro,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Report written to %s (%d videos", res.OutputPath, res.Videos)
	if len(res.Excluded) > 0 {
		fmt.Fprintf(stdout, ", %d excluded", len(res.Excluded))
	}
	fmt.Fprint(stdout, ")\n")
	if res.CommitSHA != "" {
		fmt.Fprintf(stdout, "Published as commit %s\n", res.CommitSHA)
	}
	return nil
}

// runCollect handles the "railbird collect" subcommand.
func runCollect(ctx context.Context, stdout io.Writer, configPath string) error {
	cfg, logger, err := setup(stdout, configPath)
	if err != nil {
		return err
	}
	if cfg.YouTube.ChannelID == "" {
		return fmt.Errorf("youtube.channel_id is required for collect")
	}

	startDate, err := time.Parse(time.RFC3339, cfg.Collect.StartDate)
	if err != nil {
		return fmt.Errorf("parse collect.start_date: %w", err)
	}

	yt := youtube.New(youtube.Config{
		APIKey:         cfg.YouTube.APIKey,
		MaxRetries:     cfg.YouTube.MaxRetries,
		RetryBaseDelay: time.Duration(cfg.YouTube.RetryBaseDelaySec) * time.Second,
	}, logger)

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	coll, err := collector.New(yt, store, collector.Config{
		ChannelID:   cfg.YouTube.ChannelID,
		StartDate:   startDate,
		MinDuration: time.Duration(cfg.Collect.MinDurationSec) * time.Second,
	}, logger)
	if err != nil {
		return err
	}

	res, err := coll.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Scanned %d videos: %d queued, %d skipped\n",
		res.Scanned, res.Queued, res.Skipped)
	return nil
}

// setup loads config, validates it, and builds the logger both
// subcommands share.
func setup(stdout io.Writer, configPath string) (*config.Config, *slog.Logger, error) {
	cfgPath, err := config.FindConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		level, err = config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
	}
	logger := newLogger(stdout, level)
	logger.Info("config loaded", "path", cfgPath, "version", buildinfo.Version)
	return cfg, logger, nil
}

// openStore opens the SQLite state database under the data directory.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.Store, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	dbPath := filepath.Join(cfg.DataDir, "railbird.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open state database %s: %w", dbPath, err)
	}

	store, err := state.NewStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize state database %s: %w", dbPath, err)
	}
	logger.Debug("state database opened", "path", dbPath)
	return store, func() { db.Close() }, nil
}

// newLogger creates a structured text logger writing to w.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
