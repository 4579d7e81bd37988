package main

import (
	"fmt"
	"os"

	"github.com/obentoo/feedstockrot/internal/common/logger"
	"github.com/obentoo/feedstockrot/internal/common/output"
	"github.com/obentoo/feedstockrot/internal/common/version"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "feedstockrot [package...]",
	Short: "Check for outdated conda-forge packages",
	Long: `Compare the versions packaged on conda-forge with the latest releases on
the upstream registries named by each feedstock's recipe (PyPI, npm, crates.io).

Examples:
  feedstockrot requests numpy          Check two packages
  feedstockrot --github                Check every feedstock you can push to
  feedstockrot -f packages.toml -j 8   Check a package list, 8 at a time`,
	Version: version.Short(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Configure logging based on flags
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
	},
	Run: runCheck,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "debug", false, "Enable debug output (same as --verbose)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
