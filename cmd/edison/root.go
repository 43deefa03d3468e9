package main

import (
	"github.com/spf13/cobra"
)

var rootFlags struct {
	root   string
	actor  string
	reason string
}

var rootCmd = &cobra.Command{
	Use:   "edison",
	Short: "Edison drives file-backed, state-machine-governed AI coding work",
	Long: `Edison tracks Tasks, QA records, and Sessions as human-readable files
under a project's working tree, moves them through configurable state
machines, and composes layered markdown/YAML content for agent prompts.

Use cases:
  - claim and complete units of work from a shared task pool
  - gate a task's completion behind validator evidence and bundle approval
  - compose per-pack documentation layers into one rendered document`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.root, "root", "", "project root (defaults to nearest ancestor containing .git)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.actor, "actor", "edison", "actor name recorded on state transitions")
	rootCmd.PersistentFlags().StringVar(&rootFlags.reason, "reason", "", "reason recorded on state transitions")
}

// Execute runs the root command, returning any error for main to report.
func Execute() error {
	return rootCmd.Execute()
}
