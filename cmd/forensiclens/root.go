package main

import (
	"github.com/spf13/cobra"

	"forensiclens/internal/logger"
)

var (
	flagVerbose    bool
	flagThresholds string
)

var rootCmd = &cobra.Command{
	Use:   "forensiclens",
	Short: "Image manipulation detection toolkit",
	Long: `ForensicLens runs nine forensic techniques against an image
(error level analysis, noise consistency, histogram and bit-depth checks,
clone detection, frequency analysis, contrast, blur and lighting
consistency) and aggregates them into a single manipulation verdict.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.UseConsole(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&flagThresholds, "config", "c", "",
		"path to a YAML thresholds file overriding the defaults")
	rootCmd.AddCommand(analyzeCmd)
}
