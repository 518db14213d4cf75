// Package app loads configuration and runs the server in the transport the
// command line asks for.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"kculture/internal/domain"
	"kculture/internal/infra/config"
)

type App struct {
	logger *zap.Logger
}

// ServeConfig selects the configuration file and command line overrides.
type ServeConfig struct {
	ConfigPath        string
	HTTPAddress       string
	MetricsAddress    string
	DisableMetrics    bool
	DisableHealthz    bool
	CharacterLimit    int
	UpstreamTimeoutMs int
}

type ValidateConfig struct {
	ConfigPath string
}

// ValidationReport summarizes a loaded configuration without secrets.
type ValidationReport struct {
	ConfigPath         string   `json:"configPath,omitempty"`
	HTTPAddress        string   `json:"httpAddress"`
	MissingCredentials []string `json:"missingCredentials"`
	Tools              []string `json:"tools"`
}

func New(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{logger: logger}
}

func (a *App) load(ctx context.Context, cfg ServeConfig) (domain.Config, error) {
	loaded, err := config.NewLoader(a.logger).Load(ctx, cfg.ConfigPath)
	if err != nil {
		return domain.Config{}, err
	}
	if cfg.HTTPAddress != "" {
		loaded.HTTP.ListenAddress = cfg.HTTPAddress
	}
	if cfg.MetricsAddress != "" {
		loaded.Observability.ListenAddress = cfg.MetricsAddress
	}
	if cfg.DisableMetrics {
		loaded.Observability.EnableMetrics = false
	}
	if cfg.DisableHealthz {
		loaded.Observability.EnableHealthz = false
	}
	if cfg.CharacterLimit > 0 {
		loaded.Tools.CharacterLimit = cfg.CharacterLimit
	}
	if cfg.UpstreamTimeoutMs > 0 {
		loaded.Upstream.Timeout = domain.Milliseconds(cfg.UpstreamTimeoutMs)
	}
	return loaded, nil
}

func (a *App) build(ctx context.Context, cfg ServeConfig) (*Application, error) {
	loaded, err := a.load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.logger.Info("configuration loaded", zap.String("config", cfg.ConfigPath))
	return NewApplication(loaded, a.logger)
}

// Serve runs the HTTP JSON-RPC endpoint.
func (a *App) Serve(ctx context.Context, cfg ServeConfig) error {
	application, err := a.build(ctx, cfg)
	if err != nil {
		return err
	}
	return application.RunHTTP(ctx)
}

// ServeStdio runs the MCP stdio transport.
func (a *App) ServeStdio(ctx context.Context, cfg ServeConfig) error {
	application, err := a.build(ctx, cfg)
	if err != nil {
		return err
	}
	return application.RunStdio(ctx)
}

func (a *App) ValidateConfig(ctx context.Context, cfg ValidateConfig) (ValidationReport, error) {
	loaded, err := a.load(ctx, ServeConfig{ConfigPath: cfg.ConfigPath})
	if err != nil {
		return ValidationReport{}, err
	}
	missing := loaded.MissingCredentials()
	if missing == nil {
		missing = []string{}
	}
	report := ValidationReport{
		ConfigPath:         cfg.ConfigPath,
		HTTPAddress:        loaded.HTTP.ListenAddress,
		MissingCredentials: missing,
		Tools:              append([]string(nil), domain.ToolNames...),
	}
	a.logger.Info("configuration validated",
		zap.String("config", cfg.ConfigPath),
		zap.Strings("missing_credentials", missing),
	)
	return report, nil
}

// WriteTools prints the tool catalog as the tools/list result would carry it.
func (a *App) WriteTools(ctx context.Context, cfg ServeConfig, out io.Writer) error {
	application, err := a.build(ctx, cfg)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(map[string]any{"tools": application.Tools().Tools()})
}

// CallTool invokes one tool locally and prints its text. A tool-level
// failure is printed as well and reported through the returned output.
func (a *App) CallTool(ctx context.Context, cfg ServeConfig, name, arguments string, out io.Writer) (domain.ToolOutput, error) {
	application, err := a.build(ctx, cfg)
	if err != nil {
		return domain.ToolOutput{}, err
	}
	raw := json.RawMessage(strings.TrimSpace(arguments))
	if len(raw) > 0 && !json.Valid(raw) {
		return domain.ToolOutput{}, fmt.Errorf("arguments must be a JSON object: %s", arguments)
	}
	output, err := application.Tools().Call(ctx, name, raw)
	if err != nil {
		return domain.ToolOutput{}, err
	}
	if _, err := fmt.Fprintln(out, output.Text); err != nil {
		return domain.ToolOutput{}, err
	}
	return output, nil
}
