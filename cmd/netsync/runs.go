package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"netsync/internal/service"
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded load runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepository()
			if err != nil {
				return err
			}
			if repo != nil {
				defer repo.Close()
			}

			svc := service.NewSyncService(nil, a.cfg, repo, nil, nil, a.logger)
			runs, err := svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tSTARTED\tLOADED\tQUARANTINED\tFINGERPRINT")
			for _, run := range runs {
				fp := run.Fingerprint
				if len(fp) > 12 {
					fp = fp[:12]
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					run.ID, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"),
					run.Stats.Loaded, run.Stats.Quarantined, fp)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show; 0 shows all")
	return cmd
}

func newQuarantineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quarantine [run-id]",
		Short: "Print the devices quarantined by a run (default: latest successful run)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepository()
			if err != nil {
				return err
			}
			if repo == nil {
				return errors.New("quarantine requires a database")
			}
			defer repo.Close()

			ctx := cmd.Context()
			var runID string
			if len(args) == 1 {
				runID = args[0]
			} else {
				latest, err := repo.LatestRun(ctx)
				if err != nil {
					return err
				}
				if latest == nil {
					return errors.New("no successful runs recorded")
				}
				runID = latest.ID
			}

			records, err := repo.GetQuarantine(ctx, runID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
}
