package cmd

import (
	"github.com/keshy/CodeSense/analytics"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codesense",
	Short: "CodeSense - Generate call-flow graphs from your source code",
	Long: `CodeSense parses Python, JavaScript, Ruby, or PHP source code and
produces a directed graph of which functions call which.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		disableMetrics, _ := cmd.Flags().GetBool("disable-metrics") //nolint:all
		analytics.LoadEnvFile()
		analytics.Init(disableMetrics)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("disable-metrics", false, "Disable metrics collection")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Add more logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress most logging")
}
