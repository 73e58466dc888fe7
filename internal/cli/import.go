package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ignite/campaign-intelligence/internal/repository/sqlite"
)

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Import a CSV export into the SQLite store",
		Long: `Import daily metric rows into the store given by --db. Rows already
present for the same campaign and date are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := sqlite.Open(opts.dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer s.Close()

			n, err := s.ImportCSV(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"imported": n, "db": opts.dbPath})
		},
	}
}

func newCampaignsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "campaigns",
		Short: "List campaigns with stored metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sqlite.Open(opts.dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer s.Close()

			ids, err := s.Campaigns(cmd.Context())
			if err != nil {
				return err
			}
			if ids == nil {
				ids = []string{}
			}
			return writeJSON(cmd.OutOrStdout(), ids)
		},
	}
}
