package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/edison-run/edison/internal/evidence"
	"github.com/edison-run/edison/internal/gitsafe"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Record command evidence for a Task's validation round",
}

var evidenceWriteFlags struct {
	taskID      string
	round       int
	commandName string
	exitCode    int
	hmacKey     string
}

var evidenceWriteCommandCmd = &cobra.Command{
	Use:   "write-command <command> [output-file]",
	Short: "Write a CommandEvidence record, fingerprinting the repo's current state",
	Long: `Captures command, exit code, and output (read from output-file if
given, otherwise stdin) plus a Fingerprint of the working tree's head SHA,
index hash, and dirty bit, writing one JSON record under the task's round
directory.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			fail(err)
		}
		if evidenceWriteFlags.taskID == "" {
			fail(fmt.Errorf("edison evidence write-command: --task is required"))
		}

		var output []byte
		if len(args) == 2 {
			output, err = os.ReadFile(args[1])
		} else {
			output, err = os.ReadFile("/dev/stdin")
		}
		if err != nil {
			fail(err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		g, err := gitsafe.New(ctx)
		if err != nil {
			fail(err)
		}
		fp := evidence.ComputeFingerprint(ctx, g, a.root)

		if _, err := a.evidence.EnsureRound(evidenceWriteFlags.taskID, evidenceWriteFlags.round); err != nil {
			fail(err)
		}

		name := evidenceWriteFlags.commandName
		if name == "" {
			name = "command-" + strconv.Itoa(int(time.Now().Unix()))
		}
		recordPath := filepath.Join(a.root, ".edison", "qa", "validation-evidence",
			evidenceWriteFlags.taskID, fmt.Sprintf("round-%d", evidenceWriteFlags.round), name+".json")

		rec := evidence.CommandEvidence{
			TaskID:      evidenceWriteFlags.taskID,
			Round:       evidenceWriteFlags.round,
			CommandName: name,
			Command:     args[0],
			Cwd:         a.root,
			ExitCode:    evidenceWriteFlags.exitCode,
			Output:      string(output),
			Fingerprint: fp,
		}
		if err := evidence.WriteCommandEvidence(recordPath, rec, evidenceWriteFlags.hmacKey); err != nil {
			fail(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s wrote %s\n", green("✓"), recordPath)
	},
}

func init() {
	evidenceWriteCommandCmd.Flags().StringVar(&evidenceWriteFlags.taskID, "task", "", "task id the evidence belongs to")
	evidenceWriteCommandCmd.Flags().IntVar(&evidenceWriteFlags.round, "round", 1, "validation round number")
	evidenceWriteCommandCmd.Flags().StringVar(&evidenceWriteFlags.commandName, "name", "", "evidence file name (default: derived from timestamp)")
	evidenceWriteCommandCmd.Flags().IntVar(&evidenceWriteFlags.exitCode, "exit-code", 0, "the command's exit code")
	evidenceWriteCommandCmd.Flags().StringVar(&evidenceWriteFlags.hmacKey, "hmac-key", "", "sign the record with this HMAC key (default: unsigned)")
	evidenceCmd.AddCommand(evidenceWriteCommandCmd)

	rootCmd.AddCommand(evidenceCmd)
}
