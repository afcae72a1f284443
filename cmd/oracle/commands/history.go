/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: history.go
Description: The history command. Lists the recorded verdicts of one case from the
results ledger, newest run first, followed by the case failure rate.
*/

package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/akaylee-oracle/pkg/results"
	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "history <case>",
		Short: "Show the recorded verdicts of a case from the results ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.v.GetString("results_db")
			if path == "" {
				return fmt.Errorf("--results-db is required")
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("results ledger: %w", err)
			}
			store, err := results.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open results ledger: %w", err)
			}
			defer store.Close()

			ctx := commandContext(cmd)
			records, err := store.CaseHistory(ctx, args[0])
			if err != nil {
				return err
			}
			failed, total, err := store.FailureRate(ctx, args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, r := range records {
				fmt.Fprintf(w, "%s  %s  %-4s  gof=%.3g  samples=%d  latents=%d/%d  %s\n",
					r.StartedAt.UTC().Format(time.RFC3339), r.RunID, r.Status, r.GoodnessOfFit,
					r.SampleCount, r.Distinct, r.Expected, r.Comment)
			}
			fmt.Fprintf(w, "%s failed %d / %d runs\n", args[0], failed, total)
			return nil
		},
	}
}
