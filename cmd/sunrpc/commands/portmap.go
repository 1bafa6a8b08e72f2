package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/sunrpc/pkg/portmap"
)

var (
	portmapPort  uint16
	getportProto string
)

var portmapCmd = &cobra.Command{
	Use:   "portmap",
	Short: "Query the server's portmapper",
	Long: `Query the port mapper (program 100000, version 2) on the server.

Subcommands:
  getport  Look up the port of a program
  dump     List all registered mappings`,
}

var getportCmd = &cobra.Command{
	Use:   "getport PROGRAM VERSION",
	Short: "Look up the port a program listens on",
	Long: `Ask the portmapper which port serves PROGRAM at VERSION.

Examples:
  # Where is NFSv3 over UDP?
  sunrpc portmap getport 100003 3

  # Where is mountd v3 over TCP?
  sunrpc portmap getport 100005 3 --proto tcp`,
	Args: cobra.ExactArgs(2),
	RunE: runGetport,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "List all registered mappings",
	RunE:  runDump,
}

func init() {
	portmapCmd.PersistentFlags().Uint16VarP(&portmapPort, "port", "p", portmap.DefaultPort, "portmapper port (default: client.portmap_port)")
	getportCmd.Flags().StringVar(&getportProto, "proto", "udp", "transport protocol (udp|tcp)")

	portmapCmd.AddCommand(getportCmd)
	portmapCmd.AddCommand(dumpCmd)
}

type mappingList []portmap.Mapping

func (l mappingList) Headers() []string {
	return []string{"Program", "Version", "Protocol", "Port"}
}

func (l mappingList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, m := range l {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(m.Program), 10),
			strconv.FormatUint(uint64(m.Version), 10),
			m.ProtoName(),
			strconv.FormatUint(uint64(m.Port), 10),
		})
	}
	return rows
}

func parseUint32Arg(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return uint32(v), nil
}

func runGetport(cmd *cobra.Command, args []string) error {
	program, err := parseUint32Arg("program", args[0])
	if err != nil {
		return err
	}
	version, err := parseUint32Arg("version", args[1])
	if err != nil {
		return err
	}
	proto, err := portmap.ParseProto(getportProto)
	if err != nil {
		return err
	}

	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	pm := portmap.NewClient(s.client, portFlag(cmd, portmapPort, s.cfg))
	port, err := pm.GetPort(ctx, program, version, proto)
	if err != nil {
		return err
	}

	return p.Print(mappingList{{
		Program:  program,
		Version:  version,
		Protocol: proto,
		Port:     uint32(port),
	}})
}

func runDump(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	pm := portmap.NewClient(s.client, portFlag(cmd, portmapPort, s.cfg))
	mappings, err := pm.Dump(ctx)
	if err != nil {
		return err
	}
	if len(mappings) == 0 {
		p.Printf("No mappings registered.\n")
		return nil
	}

	return p.Print(mappingList(mappings))
}
