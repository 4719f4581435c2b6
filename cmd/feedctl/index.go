package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

func runEnsureIndex(apiURL string, out io.Writer) error {
	resp, err := newClient(apiURL).R().Post("/api/content/index/ensure")
	return writeResponse(resp, err, out)
}

func runReindex(apiURL string, out io.Writer) error {
	// Reindexing streams every content row; allow it more time than single requests.
	resp, err := newClient(apiURL).SetTimeout(0).R().Post("/api/content/index/reindex")
	return writeResponse(resp, err, out)
}

func init() {
	indexCmd := &cobra.Command{Use: "index", Short: "Search index administration"}

	indexCmd.AddCommand(&cobra.Command{
		Use:   "ensure",
		Short: "Create the content index if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnsureIndex(apiFlag, os.Stdout)
		},
	})
	indexCmd.AddCommand(&cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the content index from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindex(apiFlag, os.Stdout)
		},
	})

	rootCmd.AddCommand(indexCmd)
}
