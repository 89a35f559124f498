package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-replay/internal/config"
	"github.com/sevigo/pr-replay/internal/replay"
	"github.com/sevigo/pr-replay/internal/review"
)

var recoverCmd = &cobra.Command{
	Use:   "recover [pr-number]",
	Short: "Resume an interrupted replay after its conflict was resolved",
	Long: `Resume an interrupted replay after its conflict was resolved.

A clean working tree is taken as the signal that the conflicted commit was
settled through git's own continue/skip/abort flow; the remaining commits of
the recorded session are then applied in order.

Examples:
  pr-replay recover 123
  pr-replay recover owner/repo#123`,
	Args: cobra.ExactArgs(1),
	RunE: runRecover,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(recoverCmd)
}

func parsePRNumber(arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("invalid PR number: %d", n)
		}
		return n, nil
	}
	target, err := review.ParseTarget(arg)
	if err != nil {
		return 0, err
	}
	return target.Number, nil
}

func runRecover(_ *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	prNumber, err := parsePRNumber(args[0])
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
	store := svc.storeFor(repoCfg)

	engine := replay.NewEngine(svc.vcs, store, printProgress, svc.logger)

	titleColor.Printf("Resuming replay of PR #%d\n", prNumber)
	outcome, err := engine.Recover(ctx, repoPath, prNumber)
	if err != nil {
		if errors.Is(err, replay.ErrConflictUnresolved) {
			errorColor.Println("The working tree still has uncommitted changes.")
		}
		return err
	}
	return reportOutcome(outcome, prNumber)
}
