package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var qaCmd = &cobra.Command{
	Use:   "qa",
	Short: "Inspect QA records",
}

var qaStatusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show a task's QA record: round, validator assignments, state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			fail(err)
		}
		taskID := args[0]
		qa, found, err := a.qa.GetByTaskID(taskID)
		if err != nil {
			fail(err)
		}
		if !found {
			fmt.Printf("no QA record for task %s\n", taskID)
			return
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Printf("%s  state=%s round=%d\n", yellow(qa.ID), qa.State, qa.CurrentRound)
		for _, va := range qa.ValidatorAssignments {
			blocking := "non-blocking"
			marker := green("✓")
			if va.Blocking {
				blocking = "blocking"
				marker = red("!")
			}
			fmt.Printf("  %s %-20s %s\n", marker, va.ValidatorID, blocking)
		}
	},
}

func init() {
	qaCmd.AddCommand(qaStatusCmd)
	rootCmd.AddCommand(qaCmd)
}
