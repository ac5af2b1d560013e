// Command duckchatd runs a single DuckChat relay node: a UDP server that
// speaks the client and server-to-server protocols described by the wire
// package, directly from a host/port and an optional list of peer
// host/port pairs given on the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gongpengjun/DuckChat-App/internal/duckchatd"
	"github.com/gongpengjun/DuckChat-App/internal/metrics"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Startup or runtime failure: write it to stderr, then exit 0 as
		// for a clean shutdown (the process is supervised externally).
		fmt.Fprintln(os.Stderr, "duckchatd:", err)
		os.Exit(0)
	}
}

func newRootCommand() *cobra.Command {
	var metricsAddr string
	var logLevel string

	cmd := &cobra.Command{
		Use:           "duckchatd host port [peer_host peer_port]...",
		Short:         "Run a DuckChat relay node",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args, metricsAddr, logLevel)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

func run(ctx context.Context, args []string, metricsAddr, logLevel string) error {
	log := setupLogger(logLevel)

	bindAddr, peerAddrs, err := parseEndpoints(args)
	if err != nil {
		return fmt.Errorf("failed to parse endpoints: %w", err)
	}

	reg, promReg := metrics.NewRegistry()

	if metricsAddr != "" {
		metricsServer := metrics.NewServer(metricsAddr, promReg)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	server, err := duckchatd.NewServer(bindAddr, peerAddrs, log, reg)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	defer server.Close()

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("duckchatd listening", "addr", bindAddr.String(), "peers", len(peerAddrs))
	return server.Run(runCtx)
}

// parseEndpoints reads "host port [peer_host peer_port]..." off the
// command line, where the first host/port is this node's own bind
// address and every subsequent pair is a peer to subscribe to.
func parseEndpoints(args []string) (*net.UDPAddr, []*net.UDPAddr, error) {
	if len(args)%2 != 0 {
		return nil, nil, fmt.Errorf("expected an even number of host/port arguments, got %d", len(args))
	}

	bindAddr, err := resolveHostPort(args[0], args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("bind address: %w", err)
	}

	peers := make([]*net.UDPAddr, 0, (len(args)-2)/2)
	for i := 2; i < len(args); i += 2 {
		peerAddr, err := resolveHostPort(args[i], args[i+1])
		if err != nil {
			return nil, nil, fmt.Errorf("peer address: %w", err)
		}
		peers = append(peers, peerAddr)
	}

	return bindAddr, peers, nil
}

func resolveHostPort(host, portStr string) (*net.UDPAddr, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
