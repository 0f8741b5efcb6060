package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/distill-dev/distill/internal/logging"
	"github.com/distill-dev/distill/internal/manifest"
	"github.com/distill-dev/distill/internal/pipeline"
)

func RunScaffold(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	rootPath, err := resolveDirectory(path)
	if err != nil {
		return err
	}
	cfg, err := loadRunConfig(cmd, rootPath)
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to read --dry-run flag: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}

	log, traceID, err := newRunLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(log) }()

	ctx, cancel, err := runContext(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	start := time.Now()
	res, err := pipeline.New(cfg, log).Run(ctx, rootPath)
	if err != nil {
		return err
	}

	outputDir := cfg.OutputDir
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(rootPath, outputDir)
	}
	if !dryRun {
		meta := manifest.Meta{
			RunID:       traceID,
			Version:     cmd.Root().Version,
			GeneratedAt: time.Now().UTC(),
			Config:      cfg,
		}
		if err := manifest.NewWriter(outputDir, meta, log).Write(res); err != nil {
			return err
		}
	}

	summary := ScaffoldSummary{
		Mode:           "scaffold",
		RootPath:       rootPath,
		OutputDir:      outputDir,
		DryRun:         dryRun,
		Files:          res.Stats.Files,
		Edges:          res.Stats.Edges,
		TokenBudget:    res.Stats.Limit,
		TokensUsed:     res.Stats.Consumed,
		UtilizationPct: res.Stats.Utilization,
		Strategies:     res.Stats.Strategies,
		Downgrades:     res.Stats.Downgrades,
		Cancelled:      res.Stats.Cancelled,
		DurationMS:     time.Since(start).Milliseconds(),
	}
	return PrintScaffoldSummary(summary, asJSON)
}
