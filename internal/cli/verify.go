package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pendergraft/contract-metadata/internal/caip"
	"github.com/pendergraft/contract-metadata/internal/observability/metrics"
	"github.com/pendergraft/contract-metadata/internal/registry"
	"github.com/pendergraft/contract-metadata/internal/verification"
)

// ErrVerificationFailed is returned when any verified asset has errors.
var ErrVerificationFailed = errors.New("verification failed")

func createVerifyCmd() *cobra.Command {
	var assetID string
	var all bool
	var chain string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check an asset's metadata file, icon and checksum",
		Long: `Verify one registry entry, or every entry with --all.

Checks that the metadata file exists and matches the schema, that exactly
one icon exists with a supported extension and matches the logo field, and
that EVM addresses carry a valid EIP-55 checksum.

Errors make the command fail. Warnings are printed but do not.

EXAMPLES:
  contract-metadata verify --asset eip155:1/erc20:0x6B175474E89094C44Da98b954EedeAC495271d0F

  # Whole registry, or one chain
  contract-metadata verify --all
  contract-metadata verify --all --chain eip155:1
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return runVerifyAll(cmd.Context(), cmd.OutOrStdout(), chain, jsonOutput)
			}
			return runVerify(cmd.Context(), cmd.OutOrStdout(), assetID, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&assetID, "asset", "", "CAIP-19 asset identifier")
	cmd.Flags().StringVar(&assetID, "caip", "", "alias for --asset")
	cmd.Flags().BoolVar(&all, "all", false, "verify every asset in the registry")
	cmd.Flags().StringVar(&chain, "chain", "", "with --all, limit to a chain namespace or chain id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	_ = cmd.Flags().MarkHidden("caip")
	cmd.MarkFlagsMutuallyExclusive("asset", "all")
	cmd.MarkFlagsMutuallyExclusive("caip", "all")

	return cmd
}

func runVerify(ctx context.Context, out io.Writer, raw string, jsonOutput bool) error {
	if raw == "" {
		return errors.New("--asset or --all is required")
	}
	id, err := caip.Parse(raw)
	if err != nil {
		return err
	}

	a, err := loadApp("verify")
	if err != nil {
		return err
	}
	defer a.finish()

	report, err := a.verifier().Verify(ctx, id)
	if err != nil {
		return err
	}
	recordReport(report)

	if jsonOutput {
		if err := encodeJSON(out, report); err != nil {
			return err
		}
	} else {
		printReport(out, report, false)
	}

	if !report.OK() {
		return fmt.Errorf("%w: %s has %d error(s)", ErrVerificationFailed, id, len(report.Errors))
	}
	if !jsonOutput {
		fmt.Fprintf(out, "%sOK\n", okMark(out))
	}
	return nil
}

func runVerifyAll(ctx context.Context, out io.Writer, chain string, jsonOutput bool) error {
	a, err := loadApp("verify")
	if err != nil {
		return err
	}
	defer a.finish()

	summary, err := a.verifier().VerifyAll(ctx, registry.Filter{Chain: chain})
	if err != nil {
		return err
	}
	for _, report := range summary.Reports {
		recordReport(report)
	}

	if jsonOutput {
		if err := encodeJSON(out, map[string]any{
			"reports": summary.Reports,
			"passed":  summary.Passed,
			"failed":  summary.Failed,
		}); err != nil {
			return err
		}
	} else {
		for _, report := range summary.Reports {
			printReport(out, report, true)
		}
		fmt.Fprintf(out, "\nVerified %d asset(s): %d passed, %d failed\n",
			len(summary.Reports), summary.Passed, summary.Failed)
	}

	if !summary.OK() {
		return fmt.Errorf("%w: %d of %d asset(s) have errors", ErrVerificationFailed, summary.Failed, len(summary.Reports))
	}
	if !jsonOutput {
		fmt.Fprintf(out, "%sOK\n", okMark(out))
	}
	return nil
}

// printReport writes errors then warnings in check order. With prefixID each
// line names the asset, which keeps --all output greppable.
func printReport(out io.Writer, report *verification.Report, prefixID bool) {
	prefix := ""
	if prefixID {
		prefix = report.ID + ": "
	}
	for _, f := range report.Errors {
		fmt.Fprintf(out, "ERROR: %s%s\n", prefix, f.Message)
	}
	for _, f := range report.Warnings {
		fmt.Fprintf(out, "WARN: %s%s\n", prefix, f.Message)
	}
}

func recordReport(report *verification.Report) {
	result := "pass"
	if !report.OK() {
		result = "fail"
	}
	metrics.AssetVerify(report.Asset.ChainNamespace, result)
	for _, f := range report.Errors {
		metrics.VerificationFinding("error", string(f.Kind))
	}
	for _, f := range report.Warnings {
		metrics.VerificationFinding("warning", string(f.Kind))
	}
}

func encodeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
