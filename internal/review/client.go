// Package review provides functionality for interacting with the GitHub API.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/pr-replay/internal/core"
)

// Client defines the read-only operations the replay pipeline needs from the
// review host: pull request metadata and the ordered commit list.
//
//go:generate mockgen -destination=../../mocks/mock_review_client.go -package=mocks . Client
type Client interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*core.PullRequest, error)
	ListCommits(ctx context.Context, owner, repo string, number int) ([]core.CommitRef, error)
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewClient wraps the official go-github client to provide a focused,
// testable interface for the replay pipeline.
func NewClient(client *github.Client, logger *slog.Logger) Client {
	return &gitHubClient{client: client, logger: logger}
}

// NewPATClient creates a new GitHub client authenticated with a Personal
// Access Token (PAT). An empty token yields an unauthenticated client, which
// still works for public repositories within rate limits.
func NewPATClient(ctx context.Context, token string, logger *slog.Logger) Client {
	if token == "" {
		return &gitHubClient{client: github.NewClient(nil), logger: logger}
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	return &gitHubClient{client: github.NewClient(tc), logger: logger}
}

// GetPullRequest retrieves a single pull request by its number.
func (g *gitHubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*core.PullRequest, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		g.logger.Error("failed to get pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
		return nil, classify(err)
	}

	state := core.PRStateClosed
	switch {
	case pr.GetMerged():
		state = core.PRStateMerged
	case pr.GetState() == "open":
		state = core.PRStateOpen
	}

	return &core.PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		State:  state,
	}, nil
}

// ListCommits retrieves every commit of a pull request, handling pagination,
// and returns them sorted by commit author timestamp ascending. The host's
// listing order is never trusted: replay order must equal authorship order.
func (g *gitHubClient) ListCommits(ctx context.Context, owner, repo string, number int) ([]core.CommitRef, error) {
	var all []*github.RepositoryCommit
	opts := &github.ListOptions{PerPage: 100}

	for {
		commits, resp, err := g.client.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			g.logger.Error("failed to list commits for pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, classify(err)
		}
		all = append(all, commits...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sortByAuthorDate(all)

	refs := make([]core.CommitRef, 0, len(all))
	for i, c := range all {
		refs = append(refs, core.CommitRef{
			SHA:      c.GetSHA(),
			Position: i,
			Summary:  firstLine(c.GetCommit().GetMessage()),
			Parents:  len(c.Parents),
		})
	}
	return refs, nil
}

func sortByAuthorDate(commits []*github.RepositoryCommit) {
	sort.SliceStable(commits, func(i, j int) bool {
		return authoredAt(commits[i]).Before(authoredAt(commits[j]))
	})
}

func authoredAt(c *github.RepositoryCommit) time.Time {
	return c.GetCommit().GetAuthor().GetDate().Time
}

func firstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return strings.TrimSpace(msg[:i])
	}
	return strings.TrimSpace(msg)
}

// classify maps go-github errors onto the package's error taxonomy so
// callers can present actionable guidance without inspecting HTTP details.
func classify(err error) error {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		switch errResp.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
