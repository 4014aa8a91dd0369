package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/bwsproxy/config"
)

const programName = "bwsproxy"

func newRootCmd() *cobra.Command {
	cfg, loadErr := config.Load()

	rootCmd := &cobra.Command{
		Use:   programName + " [listen_address] [listen_port]",
		Args:  cobra.MaximumNArgs(2),
		Short: "Serve Bitwarden Secrets Manager secrets over REST",
		Long: `Serve Bitwarden Secrets Manager secrets over REST

	GET /{organizationId}/{projectId}/secret/{secretId} logs in with the
	machine-account access token given as the bearer credential and returns
	the decrypted secret.

	# Listen on all interfaces, port 3030, with a health listener on 8080
	./bwsproxy 0.0.0.0 3030 --health-address 0.0.0.0 --health-port 8080
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if loadErr != nil {
				return loadErr
			}
			if err := applyArgs(&cfg, args); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, version())
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfg.IdentityURL, "identity-url", cfg.IdentityURL, "identity service base URL (env BWS_IDENTITY_URL)")
	flags.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "API service base URL (env BWS_API_URL)")
	flags.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "upstream deadline per request (env BWSPROXY_REQUEST_TIMEOUT)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (env BWSPROXY_LOG_LEVEL)")
	flags.StringVar(&cfg.TracesExporter, "traces-exporter", cfg.TracesExporter, "otlp, stdout or none (env BWSPROXY_TRACES_EXPORTER)")
	flags.StringVar(&cfg.MetricsExporter, "metrics-exporter", cfg.MetricsExporter, "otlp, prometheus, stdout or none (env BWSPROXY_METRICS_EXPORTER)")
	flags.IntVar(&cfg.HealthPort, "health-port", 0, "port of a separate health check listener")
	flags.StringVar(&cfg.HealthAddress, "health-address", "", "address of a separate health check listener; requires --health-port")

	return rootCmd
}

// applyArgs sets the positional listen address and port.
func applyArgs(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		cfg.ListenAddress = args[0]
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: listen port %q is not a number", config.ErrInvalidConfig, args[1])
		}
		cfg.ListenPort = port
	}
	return nil
}

func version() string {
	version := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				version = setting.Value
				break
			}
		}
	}

	return version
}
