package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pendergraft/contract-metadata/internal/assets"
	"github.com/pendergraft/contract-metadata/internal/caip"
	"github.com/pendergraft/contract-metadata/internal/fetch"
	"github.com/pendergraft/contract-metadata/internal/observability/metrics"
	"github.com/pendergraft/contract-metadata/internal/validation"
)

func createUpdateCmd() *cobra.Command {
	var assetID string
	var name, symbol string
	var decimals int
	var image string
	var erc20, spl string

	cmd := &cobra.Command{
		Use:     "update",
		Aliases: []string{"set", "add"},
		Short:   "Create or update an asset's metadata and icon",
		Long: `Create a registry entry, or merge the given fields into an existing one.

A new entry needs --name, --symbol, --decimals and --logo. On an existing
entry every flag is optional and only the given fields change. The icon is
copied (or downloaded) to icons/<chain>/<asset><ext> and the record's logo
field is kept pointing at it.

EXAMPLES:
  # Create an entry from a local SVG
  contract-metadata update \
    --asset eip155:1/erc20:0x6B175474E89094C44Da98b954EedeAC495271d0F \
    --name "Dai Stablecoin" --symbol DAI --decimals 18 --logo ./dai.svg

  # Replace the icon with a remote PNG
  contract-metadata update \
    --asset eip155:1/erc20:0x6B175474E89094C44Da98b954EedeAC495271d0F \
    --logo https://example.com/dai.png

  # Clear the erc20 flag
  contract-metadata set --asset eip155:1/erc20:0x6B17... --erc20 false
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u := assets.Update{Image: image}
			flags := cmd.Flags()
			if flags.Changed("name") {
				u.Name = &name
			}
			if flags.Changed("symbol") {
				u.Symbol = &symbol
			}
			if flags.Changed("decimals") {
				u.Decimals = &decimals
			}
			var err error
			if flags.Changed("erc20") {
				if u.ERC20, err = parseBoolFlag("erc20", erc20); err != nil {
					return err
				}
			}
			if flags.Changed("spl") {
				if u.SPL, err = parseBoolFlag("spl", spl); err != nil {
					return err
				}
			}
			return runUpdate(cmd.Context(), cmd.OutOrStdout(), assetID, u)
		},
	}

	cmd.Flags().StringVar(&assetID, "asset", "", "CAIP-19 asset identifier (required)")
	cmd.Flags().StringVar(&assetID, "caip", "", "alias for --asset")
	cmd.Flags().StringVar(&name, "name", "", "token name")
	cmd.Flags().StringVar(&symbol, "symbol", "", fmt.Sprintf("token symbol (max %d characters)", validation.MaxSymbolLength()))
	cmd.Flags().IntVar(&decimals, "decimals", 0, "token decimals (0-255)")
	cmd.Flags().StringVar(&image, "logo", "", "icon file path or http(s) URL (.svg, .png, .jpg, .jpeg)")
	cmd.Flags().StringVar(&image, "image", "", "alias for --logo")
	cmd.Flags().StringVar(&erc20, "erc20", "", "mark as an ERC-20 token: true or false")
	cmd.Flags().StringVar(&spl, "spl", "", "mark as an SPL token: true or false")
	_ = cmd.Flags().MarkHidden("caip")
	_ = cmd.Flags().MarkHidden("image")

	return cmd
}

func runUpdate(ctx context.Context, out io.Writer, raw string, u assets.Update) error {
	if raw == "" {
		return errors.New("--asset is required")
	}
	id, err := caip.Parse(raw)
	if err != nil {
		return err
	}

	a, err := loadApp("update")
	if err != nil {
		return err
	}
	defer a.finish()

	res, err := a.assetService().Upsert(ctx, id, u)
	if err != nil {
		metrics.AssetUpsert(id.ChainNamespace, "upsert", "failure")
		return withFetchHint(err)
	}

	operation := "update"
	verb := "Updated"
	if res.Created {
		operation = "create"
		verb = "Created"
	}
	metrics.AssetUpsert(id.ChainNamespace, operation, "success")

	fmt.Fprintf(out, "%s%s %s\n", okMark(out), verb, res.ID)
	fmt.Fprintf(out, "   metadata: %s\n", a.layout.Paths(id).MetadataPath)
	if res.IconPath != "" {
		fmt.Fprintf(out, "   icon:     %s\n", res.IconPath)
	}
	for _, removed := range res.RemovedIcons {
		fmt.Fprintf(out, "   removed:  %s\n", removed)
	}
	return nil
}

// parseBoolFlag accepts the values strconv.ParseBool does, so both
// "--erc20 false" and "--erc20=false" work.
func parseBoolFlag(name, raw string) (*bool, error) {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q for --%s: expected true or false", raw, name)
	}
	return &v, nil
}

// withFetchHint tells the user whether a logo download failed on the remote
// side or on the way there.
func withFetchHint(err error) error {
	switch fetch.KindOf(err) {
	case fetch.KindStatus, fetch.KindTooLarge, fetch.KindTooManyRedirects:
		return fmt.Errorf("%w (the image server rejected the request; check the --logo URL)", err)
	case fetch.KindTransport, fetch.KindTimeout:
		return fmt.Errorf("%w (network error; retry or download the image and pass a local path)", err)
	}
	return err
}
