package replay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/pr-replay/internal/core"
	"github.com/sevigo/pr-replay/internal/gitutil"
)

// Gate runs the pre-flight checks that decide whether the local repository
// is fit for a replay. Hard gates return an error; soft gates go through the
// confirm callback and return ErrDeclined when answered with no.
type Gate struct {
	vcs     VersionControl
	confirm core.ConfirmFunc
	logger  *slog.Logger
}

// NewGate returns a Gate. A nil confirm declines every soft gate.
func NewGate(vcs VersionControl, confirm core.ConfirmFunc, logger *slog.Logger) *Gate {
	if confirm == nil {
		confirm = func(string) bool { return false }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{vcs: vcs, confirm: confirm, logger: logger}
}

// Check validates the repository, in order: valid repository, clean tree
// (soft), attached branch, git binary reachable, already-applied commits
// (soft). It returns the name of the branch the replay will land on.
func (g *Gate) Check(ctx context.Context, repoPath string, refs []core.CommitRef) (string, error) {
	if !g.vcs.IsRepository(repoPath) {
		return "", fmt.Errorf("%w: %s", gitutil.ErrNotARepository, repoPath)
	}

	clean, err := g.vcs.IsTreeClean(ctx, repoPath)
	if err != nil {
		return "", err
	}
	if !clean {
		g.logger.Warn("working tree has uncommitted changes")
		if !g.confirm("Working tree has uncommitted changes. Replay anyway?") {
			return "", fmt.Errorf("%w: working tree not clean", ErrDeclined)
		}
	}

	branch, err := g.vcs.CurrentBranch(repoPath)
	if err != nil {
		return "", err
	}

	if err := g.vcs.BinaryAvailable(); err != nil {
		return "", err
	}

	if redundant := g.findApplied(repoPath, refs); len(redundant) > 0 {
		g.logger.Warn("some commits are already ancestors of the branch tip",
			"branch", branch, "commits", redundant)
		prompt := fmt.Sprintf("Commits already on %s: %s. Re-applying them will likely conflict. Continue?",
			branch, strings.Join(redundant, ", "))
		if !g.confirm(prompt) {
			return "", fmt.Errorf("%w: commits already applied", ErrDeclined)
		}
	}

	return branch, nil
}

// findApplied collects every ref that is already reachable from the branch
// tip. Ancestry lookups that fail (commit object not fetched yet) are
// treated as not applied.
func (g *Gate) findApplied(repoPath string, refs []core.CommitRef) []string {
	var redundant []string
	for _, ref := range refs {
		applied, err := g.vcs.IsAncestor(repoPath, ref.SHA)
		if err != nil {
			continue
		}
		if applied {
			redundant = append(redundant, ref.ShortSHA())
		}
	}
	return redundant
}
