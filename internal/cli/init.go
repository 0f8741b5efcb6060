package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/distill-dev/distill/internal/config"
	"github.com/distill-dev/distill/internal/fileutil"
	"github.com/distill-dev/distill/internal/ignore"
)

const configTemplate = `# distill configuration
# Every value shown here is the built-in default.

token_limit: 500000
model: gpt-4o
output_dir: .distill
languages:
  - python
  - go
entry_point_floor: 1.0

routing:
  high_centrality: 0.5
  high_complexity: 0.5
  complexity_weight: 0.5

richness:
  api_weight: 5.0
  loc_divisor: 50.0
  cap: 100.0

logging:
  level: info
  format: json
`

const ignoreTemplate = `# Paths excluded from analysis, one glob per line.
# Syntax follows .gitignore: a trailing / matches directories,
# a leading ! re-includes, the last matching rule wins.
# Rules here add to the built-in defaults (hidden files, vendored
# code, tests, build output).

# legacy/
# *.generated.py
`

func RunInit(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	rootPath, err := resolveDirectory(path)
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to read --force flag: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{config.File, configTemplate},
		{ignore.File, ignoreTemplate},
	}
	for _, f := range files {
		target := filepath.Join(rootPath, f.name)
		if force {
			if err := os.WriteFile(target, []byte(f.content), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", f.name, err)
			}
			fmt.Printf("Wrote %s\n", target)
			continue
		}
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Kept existing %s\n", target)
			continue
		}
		if err := fileutil.WriteIfMissing(target, []byte(f.content), 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", target)
	}
	return nil
}
