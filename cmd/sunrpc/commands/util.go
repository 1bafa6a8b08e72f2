package commands

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/sunrpc/internal/cli/output"
	"github.com/marmos91/sunrpc/internal/logger"
	"github.com/marmos91/sunrpc/internal/telemetry"
	"github.com/marmos91/sunrpc/pkg/config"
	"github.com/marmos91/sunrpc/pkg/metrics"
	"github.com/marmos91/sunrpc/pkg/metrics/prometheus"
	"github.com/marmos91/sunrpc/pkg/rpc"
	"github.com/marmos91/sunrpc/pkg/rpc/client"
	"github.com/marmos91/sunrpc/pkg/timer"
	"github.com/marmos91/sunrpc/pkg/transport/udp"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	color := !noColor && os.Getenv("NO_COLOR") == ""
	return output.NewPrinter(cmd.OutOrStdout(), format, color), nil
}

// session is everything a command needs to talk to the server: the loaded
// configuration and a running client. Close tears it down in reverse order.
type session struct {
	cfg    *config.Config
	client *client.Client

	closers []func()
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openSession loads configuration, brings up logging, tracing, profiling and
// metrics, and starts a client bound to the configured server.
func openSession(ctx context.Context) (_ *session, err error) {
	cfg, err := config.MustLoad(cfgFile)
	if err != nil {
		return nil, err
	}
	if serverFlag != "" {
		cfg.Client.Server = serverFlag
	}

	if err := InitLogger(cfg); err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	s.closers = append(s.closers, func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", logger.KeyError, err)
		}
	})

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}
	s.closers = append(s.closers, func() {
		if err := profilingShutdown(); err != nil {
			logger.Warn("Profiling shutdown failed", logger.KeyError, err)
		}
	})

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		srv := metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		metricsCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := srv.Start(metricsCtx); err != nil {
				logger.Error("Metrics server error", logger.KeyError, err)
			}
		}()
		s.closers = append(s.closers, func() {
			cancel()
			<-done
		})
	}

	server, err := resolveServer(ctx, cfg.Client.Server)
	if err != nil {
		return nil, err
	}

	tr, err := udp.Listen(udp.Config{
		LocalAddress: cfg.Client.LocalAddress,
		WriteTimeout: cfg.Client.WriteTimeout,
	})
	if err != nil {
		return nil, err
	}

	c, err := client.New(client.Config{
		Server:          server,
		TickPeriod:      cfg.Client.TickPeriod,
		RetransmitAfter: cfg.Client.RetransmitAfter,
		MaxRetransmits:  cfg.Client.MaxRetransmits,
		Buckets:         cfg.Client.Buckets,
		MaxDatagramSize: cfg.Client.MaxDatagramSize.Int(),
		Credential:      rpc.Credential{MachineName: cfg.Client.MachineName},
		Metrics:         prometheus.NewRPCMetrics(),
	}, tr, timer.NewTicker())
	if err != nil {
		_ = tr.Close()
		return nil, err
	}
	s.client = c
	s.closers = append(s.closers, func() {
		_ = c.Close()
	})

	logger.Debug("Session ready",
		logger.KeyClientID, c.ID(),
		logger.KeyRemoteAddr, server.String(),
		logger.KeyLocalAddr, tr.LocalAddr().String())

	return s, nil
}

// resolveServer turns a literal address or host name into one IP address,
// preferring IPv4.
func resolveServer(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap(), nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolve server %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return netip.Addr{}, fmt.Errorf("resolve server %q: no addresses", host)
	}
	for _, a := range addrs {
		if a.Unmap().Is4() {
			return a.Unmap(), nil
		}
	}
	return addrs[0], nil
}

// portFlag returns the --port value, or the configured portmapper port when
// the flag was not given.
func portFlag(cmd *cobra.Command, port uint16, cfg *config.Config) uint16 {
	if cmd.Flags().Changed("port") {
		return port
	}
	return uint16(cfg.Client.PortmapPort)
}
