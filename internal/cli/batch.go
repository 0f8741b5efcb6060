package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/distill-dev/distill/internal/batch"
	"github.com/distill-dev/distill/internal/logging"
	"github.com/distill-dev/distill/internal/manifest"
)

func RunBatch(cmd *cobra.Command, args []string) error {
	workspace, err := resolveDirectory(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadRunConfig(cmd, workspace)
	if err != nil {
		return err
	}
	parallel, err := cmd.Flags().GetInt("parallel")
	if err != nil {
		return fmt.Errorf("failed to read --parallel flag: %w", err)
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

	repos, err := batch.Discover(workspace)
	if err != nil {
		return err
	}

	meta := manifest.Meta{
		RunID:       traceID,
		Version:     cmd.Root().Version,
		GeneratedAt: time.Now().UTC(),
		Config:      cfg,
	}
	start := time.Now()
	outcomes, runErr := batch.NewRunner(cfg, meta, parallel, log).Run(ctx, repos)

	summary := BatchSummary{
		Mode:       "batch",
		Workspace:  workspace,
		Repos:      len(repos),
		DurationMS: time.Since(start).Milliseconds(),
	}
	for _, o := range outcomes {
		r := BatchRepoResult{
			Repo:       o.Repo,
			Files:      o.Stats.Files,
			TokensUsed: o.Stats.Consumed,
			DurationMS: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			r.Error = o.Err.Error()
			summary.Failed++
		} else {
			r.OK = true
			summary.Succeeded++
		}
		summary.Results = append(summary.Results, r)
	}
	if err := PrintBatchSummary(summary, asJSON); err != nil {
		return err
	}
	return runErr
}
