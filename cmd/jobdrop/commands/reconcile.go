package commands

import (
	"fmt"

	"github.com/joeg-ita/jobdrop/src/usecases"
	"github.com/spf13/cobra"
)

var ReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Find blobs that no job references",
	Long: `Scans the orphan ledger and the blob folder for blobs whose URL is not
referenced by any job. Orphans are only reported unless --delete is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if del, _ := cmd.Flags().GetBool("delete"); del {
			cfg.Reconcile.Delete = true
		}

		start, err := usecases.NewJobdropStart(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer start.Stop()

		report, err := start.Reconciler.Reconcile(cmd.Context())

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "scanned=%d referenced=%d skipped=%d orphans=%d deleted=%d\n",
			report.Scanned, report.Referenced, report.Skipped, len(report.Orphans), report.Deleted)
		for _, blob := range report.Orphans {
			fmt.Fprintln(out, blob.URL)
		}
		return err
	},
}

func init() {
	ReconcileCmd.Flags().Bool("delete", false, "Delete orphans instead of only reporting them")
}
