package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-replay/internal/config"
)

var outputJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows every interrupted replay session awaiting recovery",
	RunE: func(_ *cobra.Command, _ []string) error {
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

		sessions, err := svc.storeFor(repoCfg).List()
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(sessions)
		}

		if len(sessions) == 0 {
			dimColor.Println("No interrupted replays.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PR\tFAILED AT\tAPPLIED\tREMAINING")
		for _, sess := range sessions {
			failed := sess.FailedSHA
			if len(failed) > 7 {
				failed = failed[:7]
			}
			fmt.Fprintf(w, "#%d\t%s\t%d/%d\t%d\n",
				sess.PRNumber,
				failed,
				sess.Succeeded,
				sess.Total,
				len(sess.Remaining),
			)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(statusCmd)
}
