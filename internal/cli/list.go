package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/contract-metadata/internal/registry"
)

// listEntry is the JSON shape of one listed record.
type listEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals *int   `json:"decimals,omitempty"`
	Error    string `json:"error,omitempty"`
}

func createListCmd() *cobra.Command {
	var chain string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registry entries",
		Long: `List every entry in the registry with its name, symbol and decimals.

The filter accepts a chain namespace (eip155) or a full chain id (eip155:1).

EXAMPLES:
  # List everything
  contract-metadata list

  # Only EVM assets, or only Ethereum mainnet
  contract-metadata list --namespace eip155
  contract-metadata list --chain eip155:1

  # Output as JSON
  contract-metadata list --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), chain, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&chain, "chain", "", "filter by chain namespace or chain id")
	cmd.Flags().StringVar(&chain, "namespace", "", "alias for --chain")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func runList(out io.Writer, chain string, jsonOutput bool) error {
	a, err := loadApp("list")
	if err != nil {
		return err
	}
	defer a.finish()

	records, err := a.layout.Scan(registry.Filter{Chain: chain})
	if err != nil {
		return fmt.Errorf("scanning registry: %w", err)
	}

	if jsonOutput {
		entries := make([]listEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, toListEntry(rec))
		}
		return encodeJSON(out, map[string]any{
			"assets": entries,
			"count":  len(entries),
		})
	}

	if len(records) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSYMBOL\tDECIMALS")
		for _, rec := range records {
			e := toListEntry(rec)
			if e.Error != "" {
				fmt.Fprintf(w, "%s\t(%s)\t\t\n", e.ID, e.Error)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Symbol, formatDecimals(e.Decimals))
		}
		w.Flush()
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Total: %d\n", len(records))

	return nil
}

func toListEntry(rec registry.Record) listEntry {
	e := listEntry{ID: rec.ID.String()}
	if rec.Err != nil {
		e.Error = rec.Err.Error()
		return e
	}
	e.Name = rec.Metadata.Name
	e.Symbol = rec.Metadata.Symbol
	e.Decimals = rec.Metadata.Decimals
	return e
}

func formatDecimals(d *int) string {
	if d == nil {
		return "-"
	}
	return strconv.Itoa(*d)
}
