package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/app"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/gateway"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	logger     *zap.Logger
}

type serveOptions struct {
	transport        string
	httpAddr         string
	httpPath         string
	httpToken        string
	httpJSONResponse bool
	metricsAddr      string
}

func main() {
	opts := rootOptions{
		logLevel:  "info",
		logFormat: app.LogFormatJSON,
		logger:    zap.NewNop(),
	}

	root := newRootCmd(&opts)
	if err := root.Execute(); err != nil {
		opts.logger.Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "databricks-mcp",
		Short:         "MCP server exposing Databricks SQL, Unity Catalog, Workspace and Jobs as tools",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := app.BuildLogger(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file (optional)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", opts.logFormat, "log format (json or console)")

	root.AddCommand(
		newServeCmd(opts),
		newValidateCmd(opts),
		newToolsCmd(opts),
	)
	return root
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := serveOptions{
		transport: app.TransportStdio,
		httpAddr:  "127.0.0.1:8090",
		httpPath:  gateway.DefaultHTTPPath,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over stdio or streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyServeFlagBindings(cmd.Flags(), &opts)
			if err := validateServeOptions(opts); err != nil {
				return err
			}

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application := app.New(root.logger)
			err := application.Serve(ctx, app.ServeConfig{
				ConfigPath: root.configPath,
				Transport:  opts.transport,
				HTTP: gateway.HTTPOptions{
					Addr:         opts.httpAddr,
					Path:         opts.httpPath,
					Token:        opts.httpToken,
					JSONResponse: opts.httpJSONResponse,
				},
				MetricsAddr: opts.metricsAddr,
			})
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", opts.transport, "transport (stdio or streamable-http)")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", opts.httpAddr, "streamable HTTP listen address")
	cmd.Flags().StringVar(&opts.httpPath, "http-path", opts.httpPath, "streamable HTTP endpoint path")
	cmd.Flags().StringVar(&opts.httpToken, "http-token", "", "streamable HTTP bearer token (required for non-localhost)")
	cmd.Flags().BoolVar(&opts.httpJSONResponse, "http-json-response", false, "use application/json responses instead of SSE")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "observability listen address (overrides observability.listenAddress)")
	return cmd
}

// applyServeFlagBindings lets the HTTP token come from the environment when
// the flag is not given.
func applyServeFlagBindings(flags *pflag.FlagSet, opts *serveOptions) {
	if flags.Changed("http-token") {
		return
	}
	if token, ok := os.LookupEnv("DATABRICKS_MCP_HTTP_TOKEN"); ok {
		opts.httpToken = strings.TrimSpace(token)
	}
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials without serving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application := app.New(root.logger)
			if err := application.ValidateConfig(cmd.Context(), app.ValidateConfig{ConfigPath: root.configPath}); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "configuration ok")
			return err
		},
	}
}

func newToolsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool descriptors as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application := app.New(root.logger)
			tools, err := application.ListTools(cmd.Context(), app.ValidateConfig{ConfigPath: root.configPath})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tools)
		},
	}
}

func validateServeOptions(opts serveOptions) error {
	switch opts.transport {
	case app.TransportStdio:
		return nil
	case app.TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport: %s", opts.transport)
	}
	if strings.TrimSpace(opts.httpAddr) == "" {
		return errors.New("http address is required")
	}
	if !strings.HasPrefix(opts.httpPath, "/") {
		return errors.New("http path must start with /")
	}
	if !isLocalhostAddr(opts.httpAddr) && strings.TrimSpace(opts.httpToken) == "" {
		return errors.New("http token is required when binding to non-localhost address")
	}
	return nil
}

func isLocalhostAddr(addr string) bool {
	host := addr
	if strings.Contains(addr, ":") {
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		}
	}
	host = strings.TrimSpace(host)
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
