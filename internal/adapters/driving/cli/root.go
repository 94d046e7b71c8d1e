// Package cli provides the sercha-mirror command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-mirror/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "sercha-mirror",
	Short: "Incremental forum and issue-tracker indexer",
	Long: `sercha-mirror keeps a local mirror of Discourse forums and GitHub issue
trackers up to date. Each configured instance gets its own queue and worker;
a scheduler walks the latest listings on aligned intervals and only stale
topics or issues are fetched again.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default ~/.sercha-mirror/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}
