// Package batch fans the pipeline out over every repository under a
// workspace directory. Repositories are independent: one failure or
// panic never aborts the siblings.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/distill-dev/distill/internal/config"
	"github.com/distill-dev/distill/internal/manifest"
	"github.com/distill-dev/distill/internal/pipeline"
)

// Outcome is the result of one repository run.
type Outcome struct {
	Repo     string
	Duration time.Duration
	Stats    pipeline.Stats
	Err      error
}

// Runner runs repositories with bounded parallelism.
type Runner struct {
	cfg      config.Config
	meta     manifest.Meta
	parallel int
	log      *zap.Logger
}

// NewRunner creates a runner. parallel is clamped to at least 1.
func NewRunner(cfg config.Config, meta manifest.Meta, parallel int, log *zap.Logger) *Runner {
	if parallel < 1 {
		parallel = 1
	}
	meta.Config = cfg
	return &Runner{cfg: cfg, meta: meta, parallel: parallel, log: log.Named("batch")}
}

// Discover lists the candidate repositories: every non-hidden
// directory directly under root, sorted.
func Discover(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var repos []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		repos = append(repos, filepath.Join(root, e.Name()))
	}
	sort.Strings(repos)
	return repos, nil
}

// Run analyzes every repository, at most parallel at a time, writing
// each context pack into the repository's own output directory. The
// returned outcomes are ordered like repos. Run reports an error only
// when no repository succeeds.
func (r *Runner) Run(ctx context.Context, repos []string) ([]Outcome, error) {
	if len(repos) == 0 {
		return nil, fmt.Errorf("no repositories to analyze")
	}

	outcomes := make([]Outcome, len(repos))
	var eg errgroup.Group
	eg.SetLimit(r.parallel)
	for i, repo := range repos {
		i, repo := i, repo
		eg.Go(func() error {
			outcomes[i] = r.runOne(ctx, repo)
			return nil
		})
	}
	_ = eg.Wait()

	succeeded := 0
	for _, o := range outcomes {
		if o.Err == nil {
			succeeded++
		}
	}
	r.log.Info("batch complete",
		zap.Int("repos", len(repos)),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(repos)-succeeded))
	if succeeded == 0 {
		return outcomes, fmt.Errorf("all %d repositories failed", len(repos))
	}
	return outcomes, nil
}

func (r *Runner) runOne(ctx context.Context, repo string) (out Outcome) {
	out.Repo = repo
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		if rec := recover(); rec != nil {
			out.Err = fmt.Errorf("panic: %v", rec)
			r.log.Error("repository run panicked",
				zap.String("repo", repo), zap.Any("panic", rec))
		}
	}()

	log := r.log.With(zap.String("repo", filepath.Base(repo)))
	res, err := pipeline.New(r.cfg, log).Run(ctx, repo)
	if err != nil {
		out.Err = err
		log.Error("analysis failed", zap.Error(err))
		return out
	}

	outDir := r.cfg.OutputDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(repo, outDir)
	}
	if err := manifest.NewWriter(outDir, r.meta, log).Write(res); err != nil {
		out.Err = err
		log.Error("context pack write failed", zap.Error(err))
		return out
	}

	out.Stats = res.Stats
	log.Info("repository complete",
		zap.Duration("duration", time.Since(start)),
		zap.Int("files", res.Stats.Files),
		zap.Int("consumed", res.Stats.Consumed))
	return out
}
