package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/sunrpc/internal/cli/output"
	"github.com/marmos91/sunrpc/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective sunrpc configuration: file values, environment
overrides (SUNRPC_*) and defaults combined.

By default outputs YAML format. Use --format to change format.

Examples:
  # Show default config as YAML
  sunrpc config show

  # Show as JSON
  sunrpc config show --format json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "format", "f", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}
