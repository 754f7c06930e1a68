package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pendergraft/contract-metadata/internal/assets"
	"github.com/pendergraft/contract-metadata/internal/caip"
	"github.com/pendergraft/contract-metadata/internal/observability/metrics"
)

func createImportCmd() *cobra.Command {
	var file string
	var chain string
	var images string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Migrate a legacy address-keyed contract map",
		Long: `Import a legacy contract-map.json, keyed by address, into the CAIP-19 layout.

Every erc20 entry becomes <chain>/erc20:<address> and goes through the same
validation and icon handling as 'update'. Other entries are skipped. Logo
file names resolve against --images; http(s) logos are downloaded.

A failing entry is reported and the import continues. The command fails
if any entry failed.

EXAMPLES:
  contract-metadata import --file contract-map.json --chain eip155:1 --images images
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), file, chain, images)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "legacy contract-map.json (required)")
	cmd.Flags().StringVar(&chain, "chain", "eip155:1", "CAIP-2 chain id the addresses belong to")
	cmd.Flags().StringVar(&images, "images", "images", "directory holding the legacy logo files")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(ctx context.Context, out io.Writer, file, chain, images string) error {
	chainID, err := caip.ParseChainID(chain)
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("opening contract map: %w", err)
	}
	defer f.Close()

	a, err := loadApp("import")
	if err != nil {
		return err
	}
	defer a.finish()

	summary, err := a.assetService().Import(ctx, f, assets.ImportOptions{
		Chain:     chainID,
		ImagesDir: images,
	})
	if err != nil {
		return err
	}

	for range summary.Imported {
		metrics.ImportEntry("imported")
	}
	for range summary.Skipped {
		metrics.ImportEntry("skipped")
	}
	for _, failure := range summary.Failed {
		metrics.ImportEntry("failed")
		fmt.Fprintf(out, "ERROR: %s: %v\n", failure.Address, failure.Err)
	}

	fmt.Fprintf(out, "Imported: %d\n", len(summary.Imported))
	fmt.Fprintf(out, "Skipped:  %d\n", len(summary.Skipped))
	fmt.Fprintf(out, "Failed:   %d\n", len(summary.Failed))

	if len(summary.Failed) > 0 {
		return errors.New("some entries failed to import")
	}
	return nil
}
