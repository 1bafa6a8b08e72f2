package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/sunrpc/internal/cli/prompt"
	"github.com/marmos91/sunrpc/pkg/config"
)

var initForce bool

// confirmOverwrite asks before replacing an existing file.
var confirmOverwrite = prompt.ConfirmOverwrite

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample sunrpc configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/sunrpc/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  sunrpc config init

  # Initialize with custom path
  sunrpc config init --config ./sunrpc.yaml

  # Force overwrite existing config
  sunrpc config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	target := configFile
	if target == "" {
		target = config.GetDefaultConfigPath()
	}
	force := initForce
	if _, err := os.Stat(target); err == nil {
		force, err = confirmOverwrite(target, initForce)
		if err != nil {
			return err
		}
	}

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, force)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(force)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Set client.server to the host you want to talk to")
	_, _ = fmt.Fprintln(out, "  2. Check it with: sunrpc config validate")
	_, _ = fmt.Fprintf(out, "  3. Ping the portmapper: sunrpc ping --config %s\n", configPath)

	return nil
}
