package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pendergraft/contract-metadata/internal/export"
	"github.com/pendergraft/contract-metadata/internal/observability/metrics"
	"github.com/pendergraft/contract-metadata/internal/registry"
)

// exportFormats lists the accepted export targets.
var exportFormats = []string{"contract-map", "tokenlist", "sqlite"}

func createExportCmd() *cobra.Command {
	var output string
	var chain string

	cmd := &cobra.Command{
		Use:       "export <contract-map|tokenlist|sqlite>",
		Short:     "Flatten the registry into an index file",
		ValidArgs: exportFormats,
		Long: `Write the registry as a single index file.

FORMATS:
  contract-map  JSON object of CAIP-19 id to metadata record, keys sorted
  tokenlist     token list document of EVM assets (name, logoURI, keywords,
                timestamp, tokens, version); settings come from [export]
  sqlite        SQLite database with an assets table

Malformed metadata files abort the export; run 'verify --all' to find them.

EXAMPLES:
  contract-metadata export contract-map --output dist/contract-map.json
  contract-metadata export tokenlist --output dist/tokenlist.json
  contract-metadata export sqlite --output dist/registry.db --chain eip155
`,
		Args: cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), args[0], output, chain)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout for JSON formats)")
	cmd.Flags().StringVar(&chain, "chain", "", "limit to a chain namespace or chain id")

	return cmd
}

func runExport(ctx context.Context, out io.Writer, format, output, chain string) error {
	if format == "sqlite" && output == "" {
		return errors.New("--output is required for sqlite exports")
	}

	a, err := loadApp("export")
	if err != nil {
		return err
	}
	defer a.finish()

	records, err := a.layout.Scan(registry.Filter{Chain: chain})
	if err != nil {
		return fmt.Errorf("scanning registry: %w", err)
	}

	var n int
	switch format {
	case "sqlite":
		n, err = export.WriteSQLite(ctx, output, records, a.logger)
		if err != nil {
			return err
		}
	default:
		var buf bytes.Buffer
		if format == "contract-map" {
			n, err = export.WriteContractMap(&buf, records)
		} else {
			n, err = export.WriteTokenList(&buf, records, export.TokenListOptions{
				Name:        a.cfg.Export.TokenListName,
				LogoURI:     a.cfg.Export.TokenListLogo,
				LogoBaseURL: a.cfg.Export.LogoBaseURL,
				Keywords:    a.cfg.Export.Keywords,
				Version:     a.cfg.Export.Version,
			})
		}
		if err != nil {
			return err
		}
		if output == "" {
			if _, err := out.Write(buf.Bytes()); err != nil {
				return err
			}
			metrics.ExportRecords(format, n)
			return nil
		}
		if err := writeOutput(output, buf.Bytes()); err != nil {
			return err
		}
	}

	metrics.ExportRecords(format, n)
	fmt.Fprintf(out, "%sExported %d record(s) to %s\n", okMark(out), n, output)
	return nil
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
