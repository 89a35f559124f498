package replay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/pr-replay/internal/core"
	"github.com/sevigo/pr-replay/internal/review"
)

// Fetcher resolves a pull request to the ordered list of commits to replay,
// running the advisory checks that precede any local mutation.
type Fetcher struct {
	reviews review.Client
	vcs     VersionControl
	confirm core.ConfirmFunc
	remote  string
	logger  *slog.Logger
}

// NewFetcher returns a Fetcher. confirm resolves the advisory gates; a nil
// confirm declines everything, which is the safe non-interactive default.
// remote names the remote the PR commits should be fetchable from and is
// only used in hints; empty defaults to origin.
func NewFetcher(reviews review.Client, vcs VersionControl, confirm core.ConfirmFunc, remote string, logger *slog.Logger) *Fetcher {
	if confirm == nil {
		confirm = func(string) bool { return false }
	}
	if remote == "" {
		remote = "origin"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{reviews: reviews, vcs: vcs, confirm: confirm, remote: remote, logger: logger}
}

// Fetch returns the pull request's commits oldest first. Zero commits is a
// hard ErrEmptyPR. A non-open pull request and any merge commit in the list
// are surfaced through the confirm callback before returning; a declined
// confirmation aborts with ErrDeclined.
func (f *Fetcher) Fetch(ctx context.Context, repoPath string, target review.Target) ([]core.CommitRef, error) {
	pr, err := f.reviews.GetPullRequest(ctx, target.Owner, target.Repo, target.Number)
	if err != nil {
		return nil, err
	}

	if pr.State != core.PRStateOpen {
		f.logger.Warn("pull request is not open", "pr", target.Number, "state", pr.State)
		prompt := fmt.Sprintf("PR %s is %s, not open. Replay anyway?", target, pr.State)
		if !f.confirm(prompt) {
			return nil, fmt.Errorf("%w: pull request is %s", ErrDeclined, pr.State)
		}
	}

	refs, err := f.reviews.ListCommits(ctx, target.Owner, target.Repo, target.Number)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPR, target)
	}

	merges, missing := f.findMergeCommits(repoPath, refs)
	if len(missing) > 0 {
		f.logger.Warn("commits not found in the local object database; cherry-picking them will fail",
			"commits", strings.Join(missing, ", "),
			"hint", fmt.Sprintf("git fetch %s", f.remote))
	}
	if len(merges) > 0 {
		// Cherry-picking a multi-parent commit is inherently ambiguous, so
		// this gate blocks until the caller explicitly confirms.
		prompt := fmt.Sprintf("PR %s contains merge commits (%s); replaying them is ambiguous. Continue?",
			target, strings.Join(merges, ", "))
		if !f.confirm(prompt) {
			return nil, fmt.Errorf("%w: merge commits present", ErrDeclined)
		}
	}

	f.logger.Info("fetched pull request commits", "pr", target.Number, "title", pr.Title, "commits", len(refs))
	return refs, nil
}

// findMergeCommits flags every ref with more than one parent. The local
// object database is preferred; when a commit is not present locally the
// parent count reported by the review host is used instead and the ref is
// collected as missing.
func (f *Fetcher) findMergeCommits(repoPath string, refs []core.CommitRef) (merges, missing []string) {
	for _, ref := range refs {
		parents := ref.Parents
		if n, err := f.vcs.ParentCount(repoPath, ref.SHA); err == nil {
			parents = n
		} else {
			missing = append(missing, ref.ShortSHA())
		}
		if parents > 1 {
			merges = append(merges, ref.ShortSHA())
		}
	}
	return merges, missing
}
