package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jinhealth/reconcile/internal/editor"
	"github.com/jinhealth/reconcile/internal/tracing"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the saved mapping table and exclusions",
	Long: `Load the company map and exclusion list from the backend and print them.

Formats:
  yaml  the sync payload (maps and excludes)
  json  the sync payload
  csv   one row per original name: standard_name, original_name, excluded`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var (
	exportFormat string
	exportOutput string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "output format: yaml, json or csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to a file instead of stdout")
}

func runExport(cmd *cobra.Command, _ []string) error {
	switch exportFormat {
	case "yaml", "json", "csv":
	default:
		return fmt.Errorf("unknown format %q: want yaml, json or csv", exportFormat)
	}

	tp, err := tracing.Setup(cfg.Tracing, "reconcile")
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() { _ = tp.Shutdown(cmd.Context()) }()

	ed, err := newEditor(cfg.UI, false)
	if err != nil {
		return err
	}
	gw, err := newGateway(ed, tp)
	if err != nil {
		return err
	}
	defer gw.Close()
	if err := gw.Load(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput) // #nosec G304 -- user supplied output path
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportOutput, err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	return writeExport(out, ed, exportFormat)
}

// writeExport renders the editor's current state.
func writeExport(w io.Writer, ed *editor.Editor, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ed.Payload())
	case "csv":
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"standard_name", "original_name", "excluded"})
		for _, r := range ed.MappingTable() {
			_ = cw.Write([]string{r.Standard, r.Original, strconv.FormatBool(r.Excluded)})
		}
		for _, e := range ed.Excluded() {
			if e.Raw {
				_ = cw.Write([]string{"", e.Name, "true"})
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ed.Payload()); err != nil {
			return err
		}
		return enc.Close()
	}
}
