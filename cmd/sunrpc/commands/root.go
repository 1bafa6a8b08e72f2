// Package commands implements the sunrpc command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/sunrpc/cmd/sunrpc/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile      string
	serverFlag   string
	outputFormat string
	noColor      bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sunrpc",
	Short: "sunrpc - ONC RPC client over UDP",
	Long: `sunrpc talks to ONC RPC (SunRPC) services over UDP.

Calls are matched to replies by transaction id and retransmitted on a
fixed timer until a reply arrives or the retry budget is spent.

Use "sunrpc [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/sunrpc/config.yaml)")
	pf.StringVarP(&serverFlag, "server", "s", "", "server host, overrides client.server")
	pf.StringVarP(&outputFormat, "output", "o", "table", "output format (table|json|yaml)")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(portmapCmd)
	rootCmd.AddCommand(config.Cmd)
}
