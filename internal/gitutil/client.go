// Package gitutil provides a client for working with the local Git repository.
package gitutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Client handles interacting with the local Git repository. Read-only
// operations go through go-git; mutating operations and tree-status checks
// shell out to the git CLI, whose behavior around conflict state is the
// source of truth for the replay workflow.
type Client struct {
	Logger *slog.Logger
}

// NewClient returns a new Client instance.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Logger: logger}
}

// BinaryAvailable verifies the git CLI is reachable.
func (c *Client) BinaryAvailable() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("%w: %v", ErrGitMissing, err)
	}
	return nil
}

// IsRepository reports whether path is inside a valid git repository.
func (c *Client) IsRepository(path string) bool {
	_, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}

// IsTreeClean reports whether the working tree has no uncommitted changes.
// Uses `git status --porcelain` rather than go-git's worktree status, which
// is slow on large repositories and disagrees with git on some ignore rules.
func (c *Client) IsTreeClean(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = path
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status failed: %w", err)
	}
	return len(strings.TrimSpace(string(out))) == 0, nil
}

// CurrentBranch returns the name of the checked-out branch, or ErrDetachedHead
// when HEAD does not point at a branch.
func (c *Client) CurrentBranch(path string) (string, error) {
	repo, err := c.open(path)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// ParentCount returns the number of parents of a commit. A count above one
// marks a merge commit.
func (c *Client) ParentCount(path, sha string) (int, error) {
	repo, err := c.open(path)
	if err != nil {
		return 0, err
	}
	commit, err := repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return 0, fmt.Errorf("failed to look up commit %s: %w", sha, err)
	}
	return commit.NumParents(), nil
}

// IsAncestor reports whether sha is already reachable from the current
// branch tip, implying its change was already applied.
func (c *Client) IsAncestor(path, sha string) (bool, error) {
	repo, err := c.open(path)
	if err != nil {
		return false, err
	}
	head, err := repo.Head()
	if err != nil {
		return false, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	tip, err := repo.CommitObject(head.Hash())
	if err != nil {
		return false, fmt.Errorf("failed to look up branch tip: %w", err)
	}
	commit, err := repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return false, fmt.Errorf("failed to look up commit %s: %w", sha, err)
	}
	return commit.IsAncestor(tip)
}

// CherryPick applies a single commit onto the current branch using the git
// CLI. A content conflict is returned as *ConflictError; the engine persists
// state and defers resolution to git's own continue/skip/abort flow.
func (c *Client) CherryPick(ctx context.Context, path, sha string) error {
	c.Logger.Debug("cherry-picking commit", "sha", sha)

	cmd := exec.CommandContext(ctx, "git", "cherry-pick", sha)
	cmd.Dir = path
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	output := string(out)
	if strings.Contains(strings.ToLower(output), "conflict") {
		return &ConflictError{SHA: sha, Output: output}
	}
	return fmt.Errorf("git cherry-pick %s failed: %s: %w", sha, output, err)
}

// Describe returns a human-readable one-line summary of a commit for
// progress display, `<short-sha> <subject>`.
func (c *Client) Describe(path, sha string) (string, error) {
	repo, err := c.open(path)
	if err != nil {
		return "", err
	}
	commit, err := repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return "", fmt.Errorf("failed to look up commit %s: %w", sha, err)
	}

	short := sha
	if len(short) > 7 {
		short = short[:7]
	}
	subject := commit.Message
	if i := strings.IndexByte(subject, '\n'); i >= 0 {
		subject = subject[:i]
	}
	return fmt.Sprintf("%s %s", short, strings.TrimSpace(subject)), nil
}

func (c *Client) open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
		}
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return repo, nil
}
