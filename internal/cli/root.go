package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	rootDir     string
	logLevel    string
	metricsFile string
)

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contract-metadata",
		Short: "Curated token and contract metadata registry",
		Long: `contract-metadata maintains a file-based registry of token metadata keyed by
CAIP-19 asset identifiers, e.g.

  metadata/eip155:1/erc20:0x6B175474E89094C44Da98b954EedeAC495271d0F.json
  icons/eip155:1/erc20:0x6B175474E89094C44Da98b954EedeAC495271d0F.svg

Use it to create, update, verify, list and export registry entries.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE:          runRoot,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: contract-metadata.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "registry root directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")

	// Add subcommands
	rootCmd.AddCommand(createUpdateCmd())
	rootCmd.AddCommand(createVerifyCmd())
	rootCmd.AddCommand(createListCmd())
	rootCmd.AddCommand(createExportCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd
}

// runRoot shows help when no command is given. Anything else is an unknown
// command: usage goes to stderr and the command fails.
func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	out := cmd.ErrOrStderr()
	if suggestions := cmd.SuggestionsFor(args[0]); len(suggestions) > 0 {
		fmt.Fprintf(out, "Did you mean this?\n")
		for _, s := range suggestions {
			fmt.Fprintf(out, "\t%s\n", s)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprint(out, cmd.UsageString())
	return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
}
