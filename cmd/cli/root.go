package main

import (
	"bufio"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/pr-replay/internal/config"
	"github.com/sevigo/pr-replay/internal/core"
	"github.com/sevigo/pr-replay/internal/gitutil"
	"github.com/sevigo/pr-replay/internal/logger"
	"github.com/sevigo/pr-replay/internal/state"
)

var (
	githubToken string
	stateDir    string
	verbose     bool
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
)

var rootCmd = &cobra.Command{
	Use:   "pr-replay",
	Short: "pr-replay cherry-picks every commit of a GitHub Pull Request onto your current branch.",
	Long: `A CLI that replays the commits of a GitHub Pull Request, in original
authorship order, onto the currently checked-out branch, and resumes cleanly
after a cherry-pick conflict.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&githubToken, "github-token", "t", "", "GitHub Token")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "Directory for recovery session records")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := viper.BindPFlag("GITHUB_TOKEN", rootCmd.PersistentFlags().Lookup("github-token")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("STATE_DIR", rootCmd.PersistentFlags().Lookup("state-dir")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("PRR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// services is the hand-wired dependency set shared by the commands.
type services struct {
	cfg    *config.Config
	logger *slog.Logger
	vcs    *gitutil.Client
	store  *state.Store
}

func initServices() (*services, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log := logger.NewLogger(cfg.Log, nil)
	return &services{
		cfg:    cfg,
		logger: log,
		vcs:    gitutil.NewClient(log),
		store:  state.NewStore(cfg.StateDir, log),
	}, nil
}

// storeFor applies the per-repository state directory override, if any.
func (s *services) storeFor(repoCfg *core.RepoConfig) *state.Store {
	if repoCfg != nil && repoCfg.StateDir != "" {
		return state.NewStore(repoCfg.StateDir, s.logger)
	}
	return s.store
}

// newConfirm builds the decision function behind every soft gate. With
// always set, gates are answered affirmatively without touching the
// terminal, which keeps non-interactive runs deterministic.
func newConfirm(always bool) core.ConfirmFunc {
	reader := bufio.NewReader(os.Stdin)
	return func(prompt string) bool {
		if always {
			warnColor.Printf("%s [auto-confirmed]\n", prompt)
			return true
		}
		warnColor.Printf("%s [y/N]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
