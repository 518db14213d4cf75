// Package config loads the immutable process configuration from defaults,
// an optional YAML or TOML file and the environment.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"kculture/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. KCULTURE_HTTP_LISTENADDRESS.
const EnvPrefix = "KCULTURE"

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

type rawConfig struct {
	Upstream      rawUpstreamConfig      `mapstructure:"upstream"`
	Tools         rawToolsConfig         `mapstructure:"tools"`
	HTTP          rawHTTPConfig          `mapstructure:"http"`
	Observability rawObservabilityConfig `mapstructure:"observability"`
	Log           rawLogConfig           `mapstructure:"log"`
}

type rawUpstreamConfig struct {
	TimeoutMs int                 `mapstructure:"timeoutMs"`
	KOBIS     rawSourceConfig     `mapstructure:"kobis"`
	KOPIS     rawSourceConfig     `mapstructure:"kopis"`
	Tour      rawTourSourceConfig `mapstructure:"tour"`
}

type rawSourceConfig struct {
	BaseURL string `mapstructure:"baseURL"`
	APIKey  string `mapstructure:"apiKey"`
}

type rawTourSourceConfig struct {
	BaseURL   string `mapstructure:"baseURL"`
	APIKey    string `mapstructure:"apiKey"`
	MobileOS  string `mapstructure:"mobileOS"`
	MobileApp string `mapstructure:"mobileApp"`
}

type rawToolsConfig struct {
	CharacterLimit     int    `mapstructure:"characterLimit"`
	PerformanceEndDate string `mapstructure:"performanceEndDate"`
	Timezone           string `mapstructure:"timezone"`
}

type rawHTTPConfig struct {
	ListenAddress   string `mapstructure:"listenAddress"`
	MaxRequestBytes int64  `mapstructure:"maxRequestBytes"`
	AllowedOrigin   string `mapstructure:"allowedOrigin"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
	EnableMetrics bool   `mapstructure:"enableMetrics"`
	EnableHealthz bool   `mapstructure:"enableHealthz"`
}

type rawLogConfig struct {
	Level string `mapstructure:"level"`
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Credentials also come from their conventional unprefixed names.
	_ = v.BindEnv("upstream.kobis.apiKey", domain.EnvKOBISAPIKey, EnvPrefix+"_UPSTREAM_KOBIS_APIKEY")
	_ = v.BindEnv("upstream.kopis.apiKey", domain.EnvKOPISAPIKey, EnvPrefix+"_UPSTREAM_KOPIS_APIKEY")
	_ = v.BindEnv("upstream.tour.apiKey", domain.EnvTourAPIKey, EnvPrefix+"_UPSTREAM_TOUR_APIKEY")
	return v
}

func setDefaults(v *viper.Viper) {
	defaults := domain.DefaultConfig()
	v.SetDefault("upstream.timeoutMs", defaults.Upstream.TimeoutMs())
	v.SetDefault("upstream.kobis.baseURL", defaults.Upstream.KOBIS.BaseURL)
	v.SetDefault("upstream.kobis.apiKey", "")
	v.SetDefault("upstream.kopis.baseURL", defaults.Upstream.KOPIS.BaseURL)
	v.SetDefault("upstream.kopis.apiKey", "")
	v.SetDefault("upstream.tour.baseURL", defaults.Upstream.Tour.BaseURL)
	v.SetDefault("upstream.tour.apiKey", "")
	v.SetDefault("upstream.tour.mobileOS", defaults.Upstream.Tour.MobileOS)
	v.SetDefault("upstream.tour.mobileApp", defaults.Upstream.Tour.MobileApp)
	v.SetDefault("tools.characterLimit", defaults.Tools.CharacterLimit)
	v.SetDefault("tools.performanceEndDate", defaults.Tools.PerformanceEndDate)
	v.SetDefault("tools.timezone", defaults.Tools.Timezone)
	v.SetDefault("http.listenAddress", defaults.HTTP.ListenAddress)
	v.SetDefault("http.maxRequestBytes", defaults.HTTP.MaxRequestBytes)
	v.SetDefault("http.allowedOrigin", defaults.HTTP.AllowedOrigin)
	v.SetDefault("observability.listenAddress", defaults.Observability.ListenAddress)
	v.SetDefault("observability.enableMetrics", defaults.Observability.EnableMetrics)
	v.SetDefault("observability.enableHealthz", defaults.Observability.EnableHealthz)
	v.SetDefault("log.level", defaults.Log.Level)
}

// Load builds the configuration. An empty path means defaults plus environment.
func (l *Loader) Load(ctx context.Context, path string) (domain.Config, error) {
	v := newViper()
	if path != "" {
		if err := l.readFile(v, path); err != nil {
			return domain.Config{}, err
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}

	cfg, errs := normalizeConfig(raw)
	if len(errs) > 0 {
		return domain.Config{}, errors.New(strings.Join(errs, "; "))
	}
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		l.logger.Warn("upstream credentials not configured; affected tools will report an error",
			zap.Strings("missing", missing))
	}
	return cfg, nil
}

func (l *Loader) readFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var tree map[string]any
		if err := toml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		if err := v.MergeConfigMap(tree); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		return nil
	default:
		expanded, missing, err := expandConfigEnv(data)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			l.logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", missing))
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		return nil
	}
}

var logLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "error": {},
}

func normalizeConfig(raw rawConfig) (domain.Config, []string) {
	var errs []string

	cfg := domain.Config{
		Upstream: domain.UpstreamConfig{
			Timeout: domain.Milliseconds(raw.Upstream.TimeoutMs),
			KOBIS: domain.SourceConfig{
				BaseURL: strings.TrimSpace(raw.Upstream.KOBIS.BaseURL),
				APIKey:  strings.TrimSpace(raw.Upstream.KOBIS.APIKey),
			},
			KOPIS: domain.SourceConfig{
				BaseURL: strings.TrimSpace(raw.Upstream.KOPIS.BaseURL),
				APIKey:  strings.TrimSpace(raw.Upstream.KOPIS.APIKey),
			},
			Tour: domain.TourSourceConfig{
				SourceConfig: domain.SourceConfig{
					BaseURL: strings.TrimSpace(raw.Upstream.Tour.BaseURL),
					APIKey:  strings.TrimSpace(raw.Upstream.Tour.APIKey),
				},
				MobileOS:  strings.TrimSpace(raw.Upstream.Tour.MobileOS),
				MobileApp: strings.TrimSpace(raw.Upstream.Tour.MobileApp),
			},
		},
		Tools: domain.ToolsConfig{
			CharacterLimit:     raw.Tools.CharacterLimit,
			PerformanceEndDate: strings.TrimSpace(raw.Tools.PerformanceEndDate),
			Timezone:           strings.TrimSpace(raw.Tools.Timezone),
		},
		HTTP: domain.HTTPConfig{
			ListenAddress:   strings.TrimSpace(raw.HTTP.ListenAddress),
			MaxRequestBytes: raw.HTTP.MaxRequestBytes,
			AllowedOrigin:   strings.TrimSpace(raw.HTTP.AllowedOrigin),
		},
		Observability: domain.ObservabilityConfig{
			ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
			EnableMetrics: raw.Observability.EnableMetrics,
			EnableHealthz: raw.Observability.EnableHealthz,
		},
		Log: domain.LogConfig{Level: strings.ToLower(strings.TrimSpace(raw.Log.Level))},
	}

	if raw.Upstream.TimeoutMs <= 0 {
		errs = append(errs, "upstream.timeoutMs must be > 0")
	}
	for name, base := range map[string]string{
		"upstream.kobis.baseURL": cfg.Upstream.KOBIS.BaseURL,
		"upstream.kopis.baseURL": cfg.Upstream.KOPIS.BaseURL,
		"upstream.tour.baseURL":  cfg.Upstream.Tour.BaseURL,
	} {
		if err := validateBaseURL(base); err != nil {
			errs = append(errs, fmt.Sprintf("%s %v", name, err))
		}
	}
	if cfg.Tools.CharacterLimit <= 0 {
		errs = append(errs, "tools.characterLimit must be > 0")
	}
	if !isYYYYMMDD(cfg.Tools.PerformanceEndDate) {
		errs = append(errs, "tools.performanceEndDate must be YYYYMMDD")
	}
	if _, err := time.LoadLocation(cfg.Tools.Timezone); err != nil || cfg.Tools.Timezone == "" {
		errs = append(errs, fmt.Sprintf("tools.timezone %q is not a known location", cfg.Tools.Timezone))
	}
	if cfg.HTTP.ListenAddress == "" {
		errs = append(errs, "http.listenAddress is required")
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		errs = append(errs, "http.maxRequestBytes must be > 0")
	}
	if (cfg.Observability.EnableMetrics || cfg.Observability.EnableHealthz) && cfg.Observability.ListenAddress == "" {
		errs = append(errs, "observability.listenAddress is required when metrics or healthz are enabled")
	}
	if _, ok := logLevels[cfg.Log.Level]; !ok {
		errs = append(errs, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", cfg.Log.Level))
	}
	// Map iteration order is random; keep messages stable.
	sort.Strings(errs)
	return cfg, errs
}

func validateBaseURL(value string) error {
	if value == "" {
		return errors.New("is required")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("is invalid: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

func isYYYYMMDD(value string) bool {
	if len(value) != 8 {
		return false
	}
	_, err := time.Parse("20060102", value)
	return err == nil
}
