package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-replay/internal/config"
	"github.com/sevigo/pr-replay/internal/core"
	"github.com/sevigo/pr-replay/internal/replay"
	"github.com/sevigo/pr-replay/internal/review"
)

var (
	dryRun    bool
	assumeYes bool
)

var replayCmd = &cobra.Command{
	Use:   "replay [pr]",
	Short: "Replay every commit of a GitHub Pull Request onto the current branch",
	Long: `Replay every commit of a GitHub Pull Request onto the current branch.

Commits are cherry-picked one at a time, oldest first. When a cherry-pick
conflicts, the run stops and the remaining commits are recorded; resolve the
conflict with git, then continue with "pr-replay recover".

Examples:
  pr-replay replay https://github.com/owner/repo/pull/123
  pr-replay replay owner/repo#123 --dry-run
  pr-replay replay owner/repo#123 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	replayCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Walk the replay without applying or persisting anything")
	replayCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Answer every confirmation prompt with yes")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(_ *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	target, err := review.ParseTarget(args[0])
	if err != nil {
		return err
	}

	svc, err := initServices()
	if err != nil {
		return err
	}

	repoPath, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	repoCfg, err := config.LoadRepoConfig(repoPath)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return err
	}

	confirm := newConfirm(assumeYes || repoCfg.AssumeYes)
	store := svc.storeFor(repoCfg)

	reviews := review.NewPATClient(ctx, svc.cfg.GitHubToken, svc.logger)
	fetcher := replay.NewFetcher(reviews, svc.vcs, confirm, repoCfg.Remote, svc.logger)

	refs, err := fetcher.Fetch(ctx, repoPath, target)
	if err != nil {
		return err
	}

	gate := replay.NewGate(svc.vcs, confirm, svc.logger)
	branch, err := gate.Check(ctx, repoPath, refs)
	if err != nil {
		return err
	}

	action := "Replaying"
	if dryRun {
		action = "Would replay"
	}
	titleColor.Printf("%s %d commit(s) from %s onto %s\n", action, len(refs), target, branch)

	engine := replay.NewEngine(svc.vcs, store, printProgress, svc.logger)
	engine.DryRun = dryRun

	outcome, err := engine.Run(ctx, repoPath, target.Number, refs)
	if err != nil {
		return err
	}
	return reportOutcome(outcome, target.Number)
}

func printProgress(p core.Progress) {
	infoColor.Printf("[%d/%d] %s %s\n", p.Index, p.Total, p.Ref.ShortSHA(), p.Ref.Summary)
}

// reportOutcome renders the final outcome. A conflict stop is reported as an
// error so the process exits 1, matching a failed invocation.
func reportOutcome(outcome core.Outcome, prNumber int) error {
	switch outcome.Kind {
	case core.OutcomeCompleted:
		successColor.Printf("✓ %s\n", outcome)
		return nil
	case core.OutcomeConflictStopped:
		errorColor.Printf("✗ %s\n", outcome)
		dimColor.Println("Resolve the conflict, finish it with `git cherry-pick --continue` (or --skip/--abort),")
		dimColor.Printf("then resume with `pr-replay recover %d`.\n", prNumber)
		return fmt.Errorf("replay stopped on conflict at %s", outcome.FailedRef.ShortSHA())
	default:
		return fmt.Errorf("replay aborted: %s", outcome.Reason)
	}
}
