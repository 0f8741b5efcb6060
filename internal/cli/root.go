package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "distill",
		Version: version,
		Short:   "Distill repositories into token-budgeted context packs",
		Long: `Distill analyzes a repository's dependency graph and code complexity,
routes every file to an extraction strategy (FULL, SIGNATURE, MINIMAL
or SKIP) and assembles a context pack that fits a fixed token budget.

Artifacts are written to .distill/ and can be version-controlled.`,
	}

	scaffoldCmd := &cobra.Command{
		Use:   "scaffold [path]",
		Short: "Analyze one repository and write its context pack",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunScaffold,
	}
	scaffoldCmd.Flags().Int("budget", 0, "Token budget ceiling (default: config token_limit)")
	scaffoldCmd.Flags().String("model", "", "Tokenizer model for cost estimation")
	scaffoldCmd.Flags().String("output", "", "Output directory for artifacts (default: config output_dir)")
	scaffoldCmd.Flags().String("config", "", "Config file (default: <path>/.distill.yaml when present)")
	scaffoldCmd.Flags().Duration("timeout", 0, "Abort analysis after this duration, finalizing remaining files as SKIP")
	scaffoldCmd.Flags().Bool("dry-run", false, "Compute the plan but write no artifacts")
	scaffoldCmd.Flags().Bool("json", false, "Print machine-readable run summary")
	scaffoldCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")

	batchCmd := &cobra.Command{
		Use:   "batch <workspace>",
		Short: "Analyze every repository under a workspace directory",
		Args:  cobra.ExactArgs(1),
		RunE:  RunBatch,
	}
	batchCmd.Flags().Int("budget", 0, "Token budget ceiling per repository (default: config token_limit)")
	batchCmd.Flags().String("model", "", "Tokenizer model for cost estimation")
	batchCmd.Flags().String("output", "", "Output directory inside each repository (default: config output_dir)")
	batchCmd.Flags().String("config", "", "Config file applied to every repository")
	batchCmd.Flags().Duration("timeout", 0, "Abort the whole batch after this duration")
	batchCmd.Flags().IntP("parallel", "p", 4, "Repositories analyzed concurrently")
	batchCmd.Flags().Bool("json", false, "Print machine-readable batch summary")
	batchCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write starter .distill.yaml and .distillignore files",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite existing files")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("distill %s\n", version)
		},
	}

	rootCmd.AddCommand(
		scaffoldCmd,
		batchCmd,
		initCmd,
		versionCmd,
	)

	return rootCmd
}
