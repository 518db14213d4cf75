package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kculture/internal/app"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve JSON-RPC over HTTP POST, plus /metrics and /healthz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()
			return app.New(opts.logger).Serve(ctx, opts.serveConfig())
		},
	}
}

func newStdioCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()
			return app.New(opts.logger).ServeStdio(ctx, opts.serveConfig())
		},
	}
}

func newValidateCmd(opts *cliOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and report missing API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := app.New(opts.logger).ValidateConfig(cmd.Context(), app.ValidateConfig{
				ConfigPath: opts.configPath,
			})
			if err != nil {
				return exitError{code: 2, message: "invalid configuration: " + err.Error()}
			}
			if err := writeJSON(cmd, report); err != nil {
				return err
			}
			if strict && len(report.MissingCredentials) > 0 {
				return exitSilent(3)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 3 when any API key is missing")
	return cmd
}

func newToolsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.New(opts.logger).WriteTools(cmd.Context(), opts.serveConfig(), cmd.OutOrStdout())
		},
	}
}

func newCallCmd(opts *cliOptions) *cobra.Command {
	var arguments string
	var argumentsFile string
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke one tool locally and print its output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if argumentsFile != "" {
				data, err := os.ReadFile(argumentsFile)
				if err != nil {
					return fmt.Errorf("read arguments: %w", err)
				}
				arguments = string(data)
			}
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()
			output, err := app.New(opts.logger).CallTool(ctx, opts.serveConfig(), strings.TrimSpace(args[0]), arguments, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if output.Failed() {
				return exitSilent(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&arguments, "args", "a", "{}", "tool arguments as a JSON object")
	cmd.Flags().StringVar(&argumentsFile, "args-file", "", "read tool arguments from a file")
	return cmd
}

func writeJSON(cmd *cobra.Command, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
