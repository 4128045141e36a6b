package commands

import (
	"encoding/json"

	"github.com/joeg-ita/jobdrop/src/usecases"
	"github.com/spf13/cobra"
)

// SearchCmd prints one JSON object per matching job. File bytes are left out.
var SearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search jobs by title",
	Long:  `Case-insensitive literal substring search over job titles. An empty query lists every job.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		start, err := usecases.NewJobdropStart(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer start.Stop()

		jobs, err := start.Search.Search(cmd.Context(), query)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, job := range jobs {
			if err := enc.Encode(job); err != nil {
				return err
			}
		}
		return nil
	},
}
