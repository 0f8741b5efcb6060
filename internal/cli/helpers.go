package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/config"
	"github.com/distill-dev/distill/internal/logging"
)

// resolveDirectory turns a CLI path argument into an absolute,
// verified directory path.
func resolveDirectory(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to access path %q: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %q is not a directory", abs)
	}
	return abs, nil
}

// loadRunConfig builds the effective configuration for a run: the
// config file (explicit flag, or <root>/.distill.yaml when present),
// environment, then command-line flag overrides.
func loadRunConfig(cmd *cobra.Command, root string) (config.Config, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to read --config flag: %w", err)
	}
	if cfgPath == "" {
		cfgPath = config.FindFile(root)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}

	if cmd.Flags().Changed("budget") {
		budget, err := cmd.Flags().GetInt("budget")
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to read --budget flag: %w", err)
		}
		cfg.TokenLimit = budget
	}
	if cmd.Flags().Changed("model") {
		model, err := cmd.Flags().GetString("model")
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to read --model flag: %w", err)
		}
		cfg.Model = model
	}
	if cmd.Flags().Changed("output") {
		out, err := cmd.Flags().GetString("output")
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to read --output flag: %w", err)
		}
		cfg.OutputDir = out
	}
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "console"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newRunLogger builds the run logger. Every entry carries the service
// name and a trace id correlating the run's log lines and manifest.
func newRunLogger(cfg config.Config) (*zap.Logger, string, error) {
	traceID := uuid.NewString()
	log, err := logging.New(cfg.Logging,
		zap.String("service", "distill"),
		zap.String("trace_id", traceID))
	if err != nil {
		return nil, "", err
	}
	return log, traceID, nil
}

// runContext derives the run context: cancelled on SIGINT/SIGTERM and
// bounded by --timeout when set.
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc, error) {
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read --timeout flag: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop, nil
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}, nil
}
