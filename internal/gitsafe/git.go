// Package gitsafe wraps the git CLI with exec.CommandContext, an explicit
// working directory, and wrapped errors that quote the failing command's
// output. Every invocation that embeds a caller-supplied ref name or path
// passes "--" before its positional arguments, so a branch or worktree
// path that happens to start with "-" can never be reinterpreted as a git
// flag. The one exception is BranchCreate's final "git checkout <branch>",
// where "--" would turn the branch into a pathspec; that name has already
// passed ValidateRefName, which rejects a leading "-".
package gitsafe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Git runs git commands against a specific repository root.
type Git struct {
	gitPath string
}

// New locates the git executable and verifies it runs.
func New(ctx context.Context) (*Git, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("gitsafe: git not found in PATH: %w", err)
	}
	if err := exec.CommandContext(ctx, gitPath, "version").Run(); err != nil {
		return nil, fmt.Errorf("gitsafe: git command failed: %w", err)
	}
	return &Git{gitPath: gitPath}, nil
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("gitsafe: git %s failed: %w (output: %s)", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// ValidateRepo reports whether path is a directory containing a .git
// entry (file or directory — true for both a normal repo and a worktree).
func ValidateRepo(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("gitsafe: path does not exist: %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("gitsafe: not a directory: %s", path)
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return fmt.Errorf("gitsafe: not a git repository (no .git found): %s", path)
	}
	return nil
}

// ValidateRefName rejects ref/branch names git itself would, before they
// ever reach exec.CommandContext.
func ValidateRefName(name string) error {
	if name == "" {
		return fmt.Errorf("gitsafe: ref name cannot be empty")
	}
	for _, bad := range []string{" ", "~", "^", ":", "?", "*", "[", "\\", "..", "@{", "//"} {
		if strings.Contains(name, bad) {
			return fmt.Errorf("gitsafe: ref name contains invalid character or pattern: %s", bad)
		}
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("gitsafe: ref name cannot start or end with '.'")
	}
	if strings.HasSuffix(name, ".lock") {
		return fmt.Errorf("gitsafe: ref name cannot end with '.lock'")
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("gitsafe: ref name cannot start with '/' or '-'")
	}
	return nil
}

// WorktreeAdd creates a detached-HEAD worktree at worktreePath, based at
// baseBranch, under parentRepo. The branch is created separately via
// BranchCreate so callers retain control over the new branch's base.
func (g *Git) WorktreeAdd(ctx context.Context, parentRepo, worktreePath, baseBranch string) error {
	if err := ValidateRepo(parentRepo); err != nil {
		return err
	}
	if err := ValidateRefName(baseBranch); err != nil {
		return err
	}
	if _, err := os.Stat(worktreePath); err == nil {
		return fmt.Errorf("gitsafe: worktree path already exists: %s", worktreePath)
	}
	if err := os.MkdirAll(filepath.Dir(worktreePath), 0o755); err != nil {
		return fmt.Errorf("gitsafe: create worktree parent directory: %w", err)
	}
	_, err := g.run(ctx, parentRepo, "worktree", "add", "--detach", "--", worktreePath, baseBranch)
	if err != nil {
		_ = os.RemoveAll(worktreePath)
		return err
	}
	return nil
}

// WorktreeRemove removes a worktree, falling back to a forced filesystem
// removal plus a best-effort prune if git itself refuses.
func (g *Git) WorktreeRemove(ctx context.Context, parentRepo, worktreePath string) error {
	if _, err := os.Stat(worktreePath); os.IsNotExist(err) {
		return nil
	}
	if _, err := g.run(ctx, parentRepo, "worktree", "remove", "--force", "--", worktreePath); err == nil {
		return nil
	}
	if err := os.RemoveAll(worktreePath); err != nil {
		return fmt.Errorf("gitsafe: remove worktree directory: %w", err)
	}
	_, _ = g.run(ctx, parentRepo, "worktree", "prune")
	return nil
}

// BranchCreate creates branchName in worktreePath from baseBranch and
// checks it out. Fails if the branch already exists.
func (g *Git) BranchCreate(ctx context.Context, worktreePath, branchName, baseBranch string) error {
	if err := ValidateRepo(worktreePath); err != nil {
		return err
	}
	if err := ValidateRefName(branchName); err != nil {
		return fmt.Errorf("gitsafe: invalid branch name: %w", err)
	}
	if _, err := g.run(ctx, worktreePath, "rev-parse", "--verify", "--", branchName); err == nil {
		return fmt.Errorf("gitsafe: branch already exists: %s", branchName)
	}
	if _, err := g.run(ctx, worktreePath, "branch", "--", branchName, baseBranch); err != nil {
		return err
	}
	_, err := g.run(ctx, worktreePath, "checkout", branchName)
	return err
}

// Status returns "git status --porcelain" output, trimmed. Empty means
// a clean working tree.
func (g *Git) Status(ctx context.Context, repoPath string) (string, error) {
	if err := ValidateRepo(repoPath); err != nil {
		return "", err
	}
	return g.run(ctx, repoPath, "status", "--porcelain")
}

// HeadSHA returns the current HEAD commit SHA, or "" if repoPath has no
// commits yet (a fresh, un-committed repo) or isn't a git repository.
func (g *Git) HeadSHA(ctx context.Context, repoPath string) string {
	if err := ValidateRepo(repoPath); err != nil {
		return ""
	}
	sha, err := g.run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return ""
	}
	return sha
}

// IndexPath resolves the real on-disk path of repoPath's git index,
// following worktree gitdir indirection. Returns "" if repoPath is not a
// git repository (callers treat that as an empty index).
func (g *Git) IndexPath(ctx context.Context, repoPath string) string {
	if err := ValidateRepo(repoPath); err != nil {
		return ""
	}
	gitDir, err := g.run(ctx, repoPath, "rev-parse", "--git-path", "index")
	if err != nil {
		return ""
	}
	if filepath.IsAbs(gitDir) {
		return gitDir
	}
	return filepath.Join(repoPath, gitDir)
}
