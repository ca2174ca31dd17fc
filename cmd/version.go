package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keshy/CodeSense/analytics"
)

// Version metadata, overridden at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(_ *cobra.Command, _ []string) {
		analytics.ReportEvent(analytics.VersionCommand)
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Git Commit: %s\n", GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
