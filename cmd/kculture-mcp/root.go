package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"kculture/internal/app"
	"kculture/internal/domain"
)

type cliOptions struct {
	configPath        string
	envFile           string
	logLevel          string
	httpAddr          string
	metricsAddr       string
	noMetrics         bool
	noHealthz         bool
	characterLimit    int
	upstreamTimeoutMs int
	logger            *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		envFile:  ".env",
		logLevel: domain.DefaultLogLevel,
		logger:   zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "kculture-mcp",
		Short:         "MCP server for Korean box office, performing arts and tourism data",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyRootFlagBindings(cmd.Flags(), &opts)
			if err := loadEnvFile(opts.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			logger, err := app.NewLogger(opts.logLevel)
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
	root.SetVersionTemplate(fmt.Sprintf("kculture-mcp %s (%s)\n", app.Version, app.Build))

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML or TOML config file (optional)")
	flags.StringVar(&opts.envFile, "env-file", opts.envFile, "dotenv file loaded before configuration")
	flags.StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&opts.httpAddr, "http-addr", "", "JSON-RPC listen address (overrides http.listenAddress)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "observability listen address (overrides observability.listenAddress)")
	flags.BoolVar(&opts.noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	flags.BoolVar(&opts.noHealthz, "no-healthz", false, "disable the /healthz endpoint")
	flags.IntVar(&opts.characterLimit, "character-limit", 0, "maximum tool output length (overrides tools.characterLimit)")
	flags.IntVar(&opts.upstreamTimeoutMs, "upstream-timeout-ms", 0, "per-call upstream timeout in milliseconds")

	root.AddCommand(
		newServeCmd(&opts),
		newStdioCmd(&opts),
		newValidateCmd(&opts),
		newToolsCmd(&opts),
		newCallCmd(&opts),
	)
	return root
}

// applyRootFlagBindings lets KCULTURE_LOG_LEVEL and friends stand in for
// flags that were not given explicitly.
func applyRootFlagBindings(flags *pflag.FlagSet, opts *cliOptions) {
	envFallback := map[string]*string{
		"config":    &opts.configPath,
		"log-level": &opts.logLevel,
	}
	envNames := map[string]string{
		"config":    "KCULTURE_CONFIG",
		"log-level": "KCULTURE_LOG_LEVEL",
	}
	visited := make(map[string]bool)
	flags.Visit(func(f *pflag.Flag) {
		visited[f.Name] = true
	})
	for name, target := range envFallback {
		if visited[name] {
			continue
		}
		if value, ok := os.LookupEnv(envNames[name]); ok && value != "" {
			*target = value
		}
	}
}

// loadEnvFile never overrides variables already present in the environment.
// A missing default file is fine; a missing explicit one is an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func (o *cliOptions) serveConfig() app.ServeConfig {
	return app.ServeConfig{
		ConfigPath:        o.configPath,
		HTTPAddress:       o.httpAddr,
		MetricsAddress:    o.metricsAddr,
		DisableMetrics:    o.noMetrics,
		DisableHealthz:    o.noHealthz,
		CharacterLimit:    o.characterLimit,
		UpstreamTimeoutMs: o.upstreamTimeoutMs,
	}
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
