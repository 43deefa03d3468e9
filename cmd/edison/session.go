package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/edison-run/edison/internal/config"
	"github.com/edison-run/edison/internal/entity"
	"github.com/edison-run/edison/internal/gitsafe"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Open and close Sessions",
}

var sessionOpenFlags struct {
	owner      string
	baseBranch string
	branch     string
	noWorktree bool
}

var sessionOpenCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open a new Session, optionally backed by a fresh git worktree",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			fail(err)
		}
		id := args[0]

		if existing, found, err := a.sessions.Get(id); err != nil {
			fail(err)
		} else if found {
			if !a.workflow.AllowStaleSessionResume {
				fail(fmt.Errorf("edison session open: %s already exists in state %s (allow_stale_session_resume is off)", id, existing.State))
			}
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s resuming existing session %s (state=%s)\n", green("✓"), id, existing.State)
			return
		}

		var sessionCfg config.SessionConfig
		if err := a.resolver.Unmarshal("session", &sessionCfg); err != nil {
			fail(err)
		}
		if sessionCfg.WorktreeBase == "" {
			sessionCfg = config.DefaultSessionConfig()
		}

		var git entity.SessionGit
		if !sessionOpenFlags.noWorktree {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			g, err := gitsafe.New(ctx)
			if err != nil {
				fail(err)
			}
			worktreePath := filepath.Join(a.root, sessionCfg.WorktreeBase, id)
			branch := sessionOpenFlags.branch
			if branch == "" {
				branch = "edison/" + id
			}
			baseBranch := sessionOpenFlags.baseBranch
			if baseBranch == "" {
				baseBranch = "HEAD"
			}
			if err := g.WorktreeAdd(ctx, a.root, worktreePath, baseBranch); err != nil {
				fail(err)
			}
			if err := g.BranchCreate(ctx, worktreePath, branch, baseBranch); err != nil {
				fail(err)
			}
			git = entity.SessionGit{WorktreePath: worktreePath, Branch: branch}
		}

		now := time.Now().UTC()
		session := &entity.Session{
			Core: entity.Core{
				ID:    id,
				State: "open",
				Metadata: entity.Metadata{
					CreatedAt: now,
					UpdatedAt: now,
					CreatedBy: rootFlags.actor,
				},
			},
			Owner:        sessionOpenFlags.owner,
			Git:          git,
			WorktreeBase: sessionCfg.WorktreeBase,
			Tasks:        map[string]entity.SessionTaskEntry{},
			QA:           map[string]entity.SessionQAEntry{},
			Meta: entity.SessionMeta{
				SessionID:  id,
				CreatedAt:  now.Format(time.RFC3339),
				LastActive: now.Format(time.RFC3339),
				Status:     "open",
			},
		}
		if err := a.sessions.Create(session); err != nil {
			fail(err)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s opened session %s\n", green("✓"), id)
	},
}

var sessionCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a Session and remove its worktree",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			fail(err)
		}
		id := args[0]
		session, found, err := a.sessions.Get(id)
		if err != nil {
			fail(err)
		}
		if !found {
			fail(fmt.Errorf("edison session close: no such session %s", id))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if session.Git.WorktreePath != "" {
			g, err := gitsafe.New(ctx)
			if err != nil {
				fail(err)
			}
			if err := g.WorktreeRemove(ctx, a.root, session.Git.WorktreePath); err != nil {
				fail(err)
			}
		}

		_, err = a.sessions.Transition(ctx, id, "closed", nil, rootFlags.reason, rootFlags.actor, nil)
		if err != nil {
			fail(err)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s closed session %s\n", green("✓"), id)
	},
}

func init() {
	sessionOpenCmd.Flags().StringVar(&sessionOpenFlags.owner, "owner", "", "session owner")
	sessionOpenCmd.Flags().StringVar(&sessionOpenFlags.baseBranch, "base", "", "base branch/ref for the worktree (default: HEAD)")
	sessionOpenCmd.Flags().StringVar(&sessionOpenFlags.branch, "branch", "", "new branch name (default: edison/<id>)")
	sessionOpenCmd.Flags().BoolVar(&sessionOpenFlags.noWorktree, "no-worktree", false, "skip creating a git worktree")
	sessionCmd.AddCommand(sessionOpenCmd)

	sessionCmd.AddCommand(sessionCloseCmd)
	rootCmd.AddCommand(sessionCmd)
}
