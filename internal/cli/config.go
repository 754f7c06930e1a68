package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pendergraft/contract-metadata/internal/config"
)

// envVars are listed by `config show` when set.
var envVars = []string{
	"CM_ROOT",
	"CM_FETCH_TIMEOUT_SECONDS",
	"CM_FETCH_MAX_REDIRECTS",
	"CM_FETCH_MAX_SIZE_MB",
	"CM_FETCH_RATE_PER_SECOND",
	"CM_LOG_LEVEL",
	"CM_LOG_FORMAT",
	"CM_TOKEN_LIST_NAME",
	"CM_LOGO_BASE_URL",
	"CM_TOKEN_LIST_KEYWORDS",
	"CM_TOKEN_LIST_VERSION",
	"CM_METRICS_TEXTFILE",
}

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file",
		Long: `Create a commented contract-metadata.toml in the current directory.

EXAMPLES:
  # Create config with defaults
  contract-metadata config init

  # Overwrite existing config
  contract-metadata config init --force
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), path, force)
		},
	}

	cmd.Flags().StringVar(&path, "path", config.SearchFiles[0], "file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current config",
		Long: `Display the effective configuration and where it came from.

Precedence, highest first: command line flags, CM_* environment variables,
the config file, built-in defaults.

EXAMPLES:
  contract-metadata config show
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	return cmd
}

func runConfigInit(out io.Writer, path string, force bool) error {
	// Check if any config file already exists
	if !force {
		for _, name := range append([]string{path}, config.SearchFiles...) {
			if _, err := os.Stat(name); err == nil {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", name)
			}
		}
	}

	if err := os.WriteFile(path, []byte(config.Template), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(out, "Created %s\n", path)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintf(out, "  1. Edit %s to customize settings\n", path)
	fmt.Fprintln(out, "  2. Run 'contract-metadata verify --all' to check the registry")

	return nil
}

func runConfigShow(out io.Writer) error {
	a, err := loadApp("config")
	if err != nil {
		return err
	}
	defer a.finish()

	fmt.Fprintln(out, "Configuration sources (in order of precedence):")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "   --root, --log-level, --metrics-file, --config")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "2. Environment variables")
	anySet := false
	for _, name := range envVars {
		if v := os.Getenv(name); v != "" {
			fmt.Fprintf(out, "   %s=%s\n", name, v)
			anySet = true
		}
	}
	if !anySet {
		fmt.Fprintln(out, "   (none set)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "3. Config file")
	if a.cfg.Source != "" {
		fmt.Fprintf(out, "   Loaded from: %s\n", a.cfg.Source)
	} else {
		fmt.Fprintln(out, "   (not found)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Effective configuration:")
	fmt.Fprintln(out)
	return a.cfg.WriteTOML(out)
}
