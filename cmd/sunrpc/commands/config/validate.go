package config

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/sunrpc/pkg/config"
	"github.com/marmos91/sunrpc/pkg/rpc/client"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the sunrpc configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  sunrpc config validate

  # Validate specific config file
  sunrpc config validate --config ./sunrpc.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
		if !config.DefaultConfigExists() {
			displayPath += " (not found, using defaults)"
		}
	}

	var warnings []string
	if cfg.Client.TickPeriod < 10*time.Millisecond {
		warnings = append(warnings, "tick_period below 10ms retransmits very aggressively")
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.SampleRate == 0 {
		warnings = append(warnings, "telemetry is enabled with sample_rate 0, no spans will be exported")
	}

	cc := client.Config{
		TickPeriod:      cfg.Client.TickPeriod,
		RetransmitAfter: cfg.Client.RetransmitAfter,
		MaxRetransmits:  cfg.Client.MaxRetransmits,
	}
	cc.ApplyDefaults()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Server:             %s (portmap port %d)\n", cfg.Client.Server, cfg.Client.PortmapPort)
	_, _ = fmt.Fprintf(out, "  Retransmit every:   %s\n", time.Duration(cc.RetransmitAfter)*cc.TickPeriod)
	_, _ = fmt.Fprintf(out, "  Give up after:      %s\n", cc.WorstCaseLatency())
	_, _ = fmt.Fprintf(out, "  Log level:          %s\n", cfg.Logging.Level)

	return nil
}
