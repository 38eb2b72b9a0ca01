package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sapprep",
	Short: "AWS SAP-C02 exam practice in the terminal",
	Long: "sapprep: timed practice exams, per-question progress tracking and a readiness score " +
		"for the AWS Certified Solutions Architect - Professional (SAP-C02) exam.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, nil)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default $XDG_CONFIG_HOME/sapprep/config.yaml)")
	pf.String("db", "", "Path to the database (overrides SAPPREP_DB env var)")
	pf.StringSlice("bank", nil, "Question bank file or directory (repeatable, overrides config)")
	pf.String("backend", "", "Storage backend: sqlite or badger")

	rootCmd.AddCommand(examCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
