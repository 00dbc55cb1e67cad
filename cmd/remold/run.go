package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"remold-hq/remold/pkg/audit/recorder"
	"remold-hq/remold/pkg/audit/retention"
	"remold-hq/remold/pkg/audit/storage"
	"remold-hq/remold/pkg/cli"
	"remold-hq/remold/pkg/config"
	"remold-hq/remold/pkg/engine"
	"remold-hq/remold/pkg/engine/source"
	"remold-hq/remold/pkg/rules"
	"remold-hq/remold/pkg/telemetry/logging"
	"remold-hq/remold/pkg/telemetry/metrics"
)

var runFlags struct {
	rulesPath string
	input     string
	output    string
	watch     bool
	logLevel  string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Transform entries with the configured rules",
	Long: `Transform entries with the configured rules.

Entries are read as a JSON array of string-to-string objects, pushed through
the three transformation phases in order, and written back out.

Examples:
  # Transform stdin to stdout
  remold run --rules rules.yaml < entries.json

  # Transform a file
  remold run --rules rules.yaml --input entries.json --output out.json

  # Re-run whenever the rules change
  remold run --rules rules/ --input entries.json --output out.json --watch`,
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.rulesPath, "rules", "r", "", "rule file or directory (overrides config)")
	runCmd.Flags().StringVarP(&runFlags.input, "input", "i", "-", "entries file, or - for stdin")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "-", "output file, or - for stdout")
	runCmd.Flags().BoolVarP(&runFlags.watch, "watch", "w", false, "keep running and re-transform when the rules change")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func runTransform(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.rulesPath != "" {
		cfg.Rules.Path = runFlags.rulesPath
	}
	if runFlags.watch {
		cfg.Rules.Watch = true
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	ctx := cli.SetupSignalHandler()

	src := source.NewFileSource(cfg.Rules.Path, logger)
	rs, err := src.Load(ctx)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("load rules: %w", err))
	}

	// Metrics endpoint (if enabled)
	var tm *metrics.TransformMetrics
	if cfg.Telemetry.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		tm = metrics.NewTransformMetrics(metrics.Config{
			Namespace: cfg.Telemetry.Metrics.Namespace,
			Subsystem: cfg.Telemetry.Metrics.Subsystem,
		}, registry)

		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsSrv := &http.Server{Addr: cfg.Telemetry.Metrics.ListenAddress, Handler: mux}
		go func() {
			logger.Info("metrics endpoint listening",
				"address", cfg.Telemetry.Metrics.ListenAddress,
				"path", cfg.Telemetry.Metrics.Path,
			)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	// Audit trail (if enabled)
	var rec *recorder.Recorder
	if cfg.Audit.Enabled {
		store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Audit.SQLite.Path,
			MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Audit.SQLite.MaxIdleConns,
			WALMode:      cfg.Audit.SQLite.WALMode,
			BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
		}, logger)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("create audit storage: %w", err))
		}
		defer store.Close()

		rec = recorder.NewRecorder(store, &recorder.Config{
			Enabled:      true,
			AsyncBuffer:  cfg.Audit.AsyncBuffer,
			WriteTimeout: cfg.Audit.WriteTimeout,
		}, logger)
		defer rec.Close()

		if cfg.Audit.Retention.PruneSchedule != "" {
			pruner := retention.NewPruner(store, &retention.Config{
				RetentionDays: cfg.Audit.Retention.Days,
				MaxRecords:    cfg.Audit.Retention.MaxRecords,
				PruneSchedule: cfg.Audit.Retention.PruneSchedule,
			}, logger)
			sched := retention.NewScheduler(pruner, logger)
			if err := sched.Start(ctx); err != nil {
				logger.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer sched.Stop()
			}
		}

		logger.Info("audit trail enabled", "run_id", rec.RunID(), "path", cfg.Audit.SQLite.Path)
	}

	var observers []engine.ChangeObserver
	if rec != nil {
		observers = append(observers, rec)
	}
	sinks := []engine.DiagnosticSink{engine.NewLogSink(logger)}
	if tm != nil {
		observers = append(observers, tm)
		sinks = append(sinks, tm)
	}

	eng, err := engine.New(rs, engine.Options{
		Logger:        logger,
		Diagnostics:   engine.MultiSink(sinks...),
		Observer:      engine.MultiObserver(observers...),
		EntryKeyField: cfg.Audit.EntryKeyField,
	})
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("compile rules: %w", err))
	}

	if !cfg.Rules.Watch {
		return transformOnce(eng, tm)
	}

	// Watch mode re-reads the input file on every rule change, so stdin
	// cannot feed it.
	if runFlags.input == "" || runFlags.input == "-" {
		return fmt.Errorf("--watch requires --input to name a file")
	}

	if err := transformOnce(eng, tm); err != nil {
		return cli.NewCommandError("run", err)
	}

	events, err := src.Watch(ctx)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("watch rules: %w", err))
	}

	logger.Info("watching for rule changes", "path", cfg.Rules.Path)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				logger.Error("rules watch error", "error", ev.Err)
				continue
			}

			rs, err := src.Load(ctx)
			if err != nil {
				logger.Error("failed to reload rules, keeping previous rules",
					"path", ev.Path,
					"error", err,
				)
				continue
			}
			if err := eng.Reload(rs); err != nil {
				logger.Error("failed to recompile rules, keeping previous rules",
					"path", ev.Path,
					"error", err,
				)
				continue
			}

			if err := transformOnce(eng, tm); err != nil {
				logger.Error("transform failed", "error", err)
			}
		}
	}
}

// transformOnce runs all three phases over the input entries and writes the
// transformed entries to the output.
func transformOnce(eng *engine.Engine, tm *metrics.TransformMetrics) error {
	entries, err := readEntries(runFlags.input)
	if err != nil {
		return err
	}

	for _, phase := range rules.Phases {
		res := eng.RunPhaseResult(phase, entries)
		if tm != nil {
			tm.RecordPhase(res)
		}
	}

	return writeEntries(runFlags.output, entries)
}

// readEntries decodes a JSON array of string maps from a file or stdin.
func readEntries(path string) ([]engine.Entry, error) {
	var data []byte
	var err error

	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}

	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse entries: %w", err)
	}

	entries := make([]engine.Entry, 0, len(raw))
	for _, m := range raw {
		entries = append(entries, engine.MapEntry(m))
	}
	return entries, nil
}

// writeEntries encodes the entries as a JSON array to a file or stdout.
func writeEntries(path string, entries []engine.Entry) error {
	out := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		if m, ok := e.(engine.MapEntry); ok {
			out = append(out, m)
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
