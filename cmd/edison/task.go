package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/edison-run/edison/internal/entity"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create, claim, and list Tasks",
}

var taskCreateFlags struct {
	wave     string
	typ      string
	parentID string
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <id> <title>",
	Short: "Create a new Task in its initial state",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			fail(err)
		}
		id, title := args[0], args[1]
		now := time.Now().UTC()
		task := &entity.Task{
			Core: entity.Core{
				ID:    id,
				State: "todo",
				Metadata: entity.Metadata{
					CreatedAt: now,
					UpdatedAt: now,
					CreatedBy: rootFlags.actor,
				},
			},
			Title:    title,
			Wave:     taskCreateFlags.wave,
			Type:     taskCreateFlags.typ,
			ParentID: taskCreateFlags.parentID,
			ChildIDs: []string{},
		}
		if err := a.tasks.Create(task); err != nil {
			fail(err)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s created task %s\n", green("✓"), id)
	},
}

var taskClaimFlags struct {
	session string
	wave    string
}

var taskClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim the next ready Task for a session",
	Long: `Selects the lexicographically first Task in the ready state whose
wave matches (or any wave, if --wave is empty) and whose parent's other
children are already accounted for, and transitions it to wip.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			fail(err)
		}
		if taskClaimFlags.session == "" {
			fail(fmt.Errorf("edison task claim: --session is required"))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		task, err := a.tasks.ClaimNext(ctx, taskClaimFlags.session, taskClaimFlags.wave, isTerminalTaskState, rootFlags.actor)
		if err != nil {
			fail(err)
		}
		if task == nil {
			fmt.Println("no ready task available")
			return
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s claimed %s for session %s\n", green("✓"), task.ID, taskClaimFlags.session)
	},
}

var taskListFlags struct {
	state string
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List Tasks, optionally filtered by state",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			fail(err)
		}
		var tasks []*entity.Task
		if taskListFlags.state != "" {
			tasks, err = a.tasks.ListByState(taskListFlags.state)
		} else {
			tasks, err = a.tasks.ListAll()
		}
		if err != nil {
			fail(err)
		}
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, t := range tasks {
			fmt.Printf("%-24s %-10s %s\n", t.ID, t.State, gray(t.Title))
		}
	},
}

// isTerminalTaskState names the states ClaimNext treats a parent's
// children as "otherwise accounted for" by — mirroring guards.ChildrenReady's
// default terminal set so the CLI claim path and the state machine's
// ChildrenReady guard agree on what "done" means.
func isTerminalTaskState(state string) bool {
	return state == "done" || state == "validated"
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func init() {
	taskCreateCmd.Flags().StringVar(&taskCreateFlags.wave, "wave", "", "wave this task belongs to")
	taskCreateCmd.Flags().StringVar(&taskCreateFlags.typ, "type", "", "task type")
	taskCreateCmd.Flags().StringVar(&taskCreateFlags.parentID, "parent", "", "parent task id")
	taskCmd.AddCommand(taskCreateCmd)

	taskClaimCmd.Flags().StringVar(&taskClaimFlags.session, "session", "", "session id claiming the task")
	taskClaimCmd.Flags().StringVar(&taskClaimFlags.wave, "wave", "", "restrict to this wave (default: any)")
	taskCmd.AddCommand(taskClaimCmd)

	taskListCmd.Flags().StringVar(&taskListFlags.state, "state", "", "restrict to this state (default: all)")
	taskCmd.AddCommand(taskListCmd)

	rootCmd.AddCommand(taskCmd)
}
