package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jinhealth/reconcile/internal/config"
	"github.com/jinhealth/reconcile/internal/ingest"
	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import checkup records into the reference backend database",
	Long: `Read checkup records from CSV, TSV or XLSX files and upsert them by receipt
number. Only the company name, receipt number and checkup date columns are
kept; their header names come from the import section of the config.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var (
	importDB    string
	importSheet string
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importDB, "db", "", "SQLite database path (overrides server.db_path)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "worksheet to read from xlsx files")
}

func runImport(cmd *cobra.Command, files []string) error {
	path := cfg.Server.DBPath
	if importDB != "" {
		path = importDB
	}
	if importSheet != "" {
		cfg.Import.Sheet = importSheet
	}
	if err := config.ValidateImport(cfg.Import); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := store.Open(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return importFiles(cmd.Context(), cmd.OutOrStdout(), db.Checkups(), cfg.Import, files)
}

// importFiles reads every file before writing any of them, so a bad file
// leaves the database untouched.
func importFiles(ctx context.Context, out io.Writer, repo *store.CheckupRepository, cols config.ImportConfig, files []string) error {
	var records []store.Checkup
	for _, f := range files {
		res, err := ingest.ReadFile(f, cols)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d rows, %d skipped without a receipt number\n", filepath.Base(f), res.Rows, res.Skipped)
		records = append(records, res.Records...)
	}

	n, err := repo.Upsert(ctx, records)
	if err != nil {
		return err
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	log.Info(log.CatImport, "Imported records", "files", len(files), "written", n, "total", total)
	fmt.Fprintf(out, "Imported %d records; %d on file\n", n, total)
	return nil
}
