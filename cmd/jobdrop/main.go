package main

import (
	"fmt"
	"os"

	"github.com/joeg-ita/jobdrop/cmd/jobdrop/commands"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobdrop",
	Short: "jobdrop - job file uploads with searchable metadata",
	Long: `jobdrop stores uploaded job files in object storage and keeps the
metadata plus a copy of the bytes in MongoDB.

Available commands:
  serve      - Start the HTTP server
  search     - Search jobs by title
  reconcile  - Find blobs that no job references`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.SearchCmd)
	rootCmd.AddCommand(commands.ReconcileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
