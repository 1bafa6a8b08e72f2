package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/sunrpc/internal/cli/output"
	"github.com/marmos91/sunrpc/internal/cli/timeutil"
	"github.com/marmos91/sunrpc/pkg/portmap"
	"github.com/marmos91/sunrpc/pkg/rpc/client"
)

var errPingFailed = errors.New("one or more calls failed")

var (
	pingProgram uint32
	pingVersion uint32
	pingPort    uint16
	pingCount   int
)

type pingResult struct {
	Seq      int           `json:"seq" yaml:"seq"`
	Program  uint32        `json:"program" yaml:"program"`
	Version  uint32        `json:"version" yaml:"version"`
	Port     uint16        `json:"port" yaml:"port"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

type pingReport struct {
	Results []pingResult `json:"results" yaml:"results"`
	Stats   client.Stats `json:"stats" yaml:"stats"`
}

func (r pingReport) Headers() []string {
	return []string{"Seq", "Program", "Version", "Port", "Result", "Time"}
}

func (r pingReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		result := "ok"
		if res.Error != "" {
			result = res.Error
		}
		rows = append(rows, []string{
			strconv.Itoa(res.Seq),
			strconv.FormatUint(uint64(res.Program), 10),
			strconv.FormatUint(uint64(res.Version), 10),
			strconv.FormatUint(uint64(res.Port), 10),
			result,
			timeutil.FormatLatency(res.Duration),
		})
	}
	return rows
}

func statsPairs(s client.Stats) [][2]string {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	return [][2]string{
		{"Issued", u(s.Issued)},
		{"Replies", u(s.Replies)},
		{"Retransmits", u(s.Retransmits)},
		{"Retransmit failures", u(s.RetransmitFailures)},
		{"Timeouts", u(s.Timeouts)},
		{"Abandoned", u(s.Abandoned)},
		{"Dropped (unknown xid)", u(s.DroppedUnknown)},
		{"Dropped (malformed)", u(s.DroppedMalformed)},
	}
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Call procedure 0 (NULL) of a program",
	Long: `Call the NULL procedure of an RPC program and report the round trip.

Without flags the portmapper on the configured server is pinged once.

Examples:
  # Ping the portmapper
  sunrpc ping --server nfs.example.com

  # Ping NFSv3 on port 2049 five times
  sunrpc ping --program 100003 --version 3 --port 2049 --count 5`,
	RunE: runPing,
}

func init() {
	pingCmd.Flags().Uint32Var(&pingProgram, "program", portmap.Program, "RPC program number")
	pingCmd.Flags().Uint32Var(&pingVersion, "version", portmap.Version, "RPC program version")
	pingCmd.Flags().Uint16VarP(&pingPort, "port", "p", portmap.DefaultPort, "UDP port (default: client.portmap_port)")
	pingCmd.Flags().IntVarP(&pingCount, "count", "c", 1, "number of calls")
}

func runPing(cmd *cobra.Command, args []string) error {
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

	port := portFlag(cmd, pingPort, s.cfg)
	report := pingReport{}
	failed := false

	for seq := 1; seq <= max(pingCount, 1); seq++ {
		start := time.Now()
		err := s.client.Ping(ctx, port, pingProgram, pingVersion)
		res := pingResult{
			Seq:      seq,
			Program:  pingProgram,
			Version:  pingVersion,
			Port:     port,
			Duration: time.Since(start),
		}
		if err != nil {
			res.Error = err.Error()
			failed = true
		}
		report.Results = append(report.Results, res)

		if ctx.Err() != nil {
			break
		}
	}
	report.Stats = s.client.Stats()

	if err := p.Print(report); err != nil {
		return err
	}
	if p.Format() == output.FormatTable {
		p.Printf("\n")
		if err := output.PrintKeyValues(cmd.OutOrStdout(), statsPairs(report.Stats)); err != nil {
			return err
		}
	}

	if failed {
		return errPingFailed
	}
	return context.Cause(ctx)
}
