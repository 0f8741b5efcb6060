package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type ScaffoldSummary struct {
	Mode           string         `json:"mode"`
	RootPath       string         `json:"root_path"`
	OutputDir      string         `json:"output_dir"`
	DryRun         bool           `json:"dry_run"`
	Files          int            `json:"files"`
	Edges          int            `json:"edges"`
	TokenBudget    int            `json:"token_budget"`
	TokensUsed     int            `json:"tokens_used"`
	UtilizationPct float64        `json:"utilization_pct"`
	Strategies     map[string]int `json:"strategies"`
	Downgrades     int            `json:"downgrades"`
	Cancelled      bool           `json:"cancelled"`
	DurationMS     int64          `json:"duration_ms"`
}

type BatchRepoResult struct {
	Repo       string `json:"repo"`
	OK         bool   `json:"ok"`
	Files      int    `json:"files,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type BatchSummary struct {
	Mode       string            `json:"mode"`
	Workspace  string            `json:"workspace"`
	Repos      int               `json:"repos"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	DurationMS int64             `json:"duration_ms"`
	Results    []BatchRepoResult `json:"results,omitempty"`
}

func PrintScaffoldSummary(summary ScaffoldSummary, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}

	mode := summary.Mode
	if summary.DryRun {
		mode = "scaffold (dry-run)"
	}
	fmt.Printf("%s complete in %dms\n", mode, summary.DurationMS)
	if !summary.DryRun {
		fmt.Printf("output: %s\n", summary.OutputDir)
	}
	fmt.Printf("files: analyzed=%d edges=%d\n", summary.Files, summary.Edges)
	fmt.Printf("budget: used=%d limit=%d utilization=%.1f%% downgrades=%d\n",
		summary.TokensUsed, summary.TokenBudget, summary.UtilizationPct, summary.Downgrades)
	fmt.Printf("strategies: %s\n", formatStrategies(summary.Strategies))
	if summary.Cancelled {
		fmt.Println("run cancelled before completion; remaining files were skipped")
	}
	return nil
}

func PrintBatchSummary(summary BatchSummary, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}

	fmt.Printf("batch complete in %dms\n", summary.DurationMS)
	fmt.Printf("repos: total=%d succeeded=%d failed=%d\n",
		summary.Repos, summary.Succeeded, summary.Failed)
	for _, r := range summary.Results {
		if r.OK {
			fmt.Printf("  ok   %s files=%d tokens=%d duration=%dms\n",
				r.Repo, r.Files, r.TokensUsed, r.DurationMS)
		} else {
			fmt.Printf("  fail %s: %s\n", r.Repo, r.Error)
		}
	}
	return nil
}

func formatStrategies(counts map[string]int) string {
	order := []string{"FULL", "SIGNATURE", "MINIMAL", "SKIP"}
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(name), counts[name]))
	}
	return strings.Join(parts, " ")
}
