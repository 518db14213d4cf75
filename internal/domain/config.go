package domain

import "time"

// Config is the immutable process configuration, loaded once at startup.
type Config struct {
	Upstream      UpstreamConfig
	Tools         ToolsConfig
	HTTP          HTTPConfig
	Observability ObservabilityConfig
	Log           LogConfig
}

type UpstreamConfig struct {
	Timeout time.Duration
	KOBIS   SourceConfig
	KOPIS   SourceConfig
	Tour    TourSourceConfig
}

type SourceConfig struct {
	BaseURL string
	APIKey  string
}

type TourSourceConfig struct {
	SourceConfig
	MobileOS  string
	MobileApp string
}

type ToolsConfig struct {
	CharacterLimit     int
	PerformanceEndDate string
	Timezone           string
}

type HTTPConfig struct {
	ListenAddress   string
	MaxRequestBytes int64
	AllowedOrigin   string
}

type ObservabilityConfig struct {
	ListenAddress string
	EnableMetrics bool
	EnableHealthz bool
}

type LogConfig struct {
	Level string
}

// DefaultConfig returns a configuration with every default filled in and no credentials.
func DefaultConfig() Config {
	return Config{
		Upstream: UpstreamConfig{
			Timeout: DefaultUpstreamTimeout,
			KOBIS:   SourceConfig{BaseURL: DefaultKOBISBaseURL},
			KOPIS:   SourceConfig{BaseURL: DefaultKOPISBaseURL},
			Tour: TourSourceConfig{
				SourceConfig: SourceConfig{BaseURL: DefaultTourAPIBaseURL},
				MobileOS:     DefaultTourMobileOS,
				MobileApp:    DefaultTourMobileApp,
			},
		},
		Tools: ToolsConfig{
			CharacterLimit:     DefaultCharacterLimit,
			PerformanceEndDate: DefaultPerformanceEndDate,
			Timezone:           DefaultTimezone,
		},
		HTTP: HTTPConfig{
			ListenAddress:   DefaultHTTPListenAddress,
			MaxRequestBytes: DefaultMaxRequestBytes,
			AllowedOrigin:   "*",
		},
		Observability: ObservabilityConfig{
			ListenAddress: DefaultObservabilityListenAddress,
			EnableMetrics: true,
			EnableHealthz: true,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// MissingCredentials names the environment variables whose keys are empty.
func (c Config) MissingCredentials() []string {
	var missing []string
	if c.Upstream.KOBIS.APIKey == "" {
		missing = append(missing, EnvKOBISAPIKey)
	}
	if c.Upstream.KOPIS.APIKey == "" {
		missing = append(missing, EnvKOPISAPIKey)
	}
	if c.Upstream.Tour.APIKey == "" {
		missing = append(missing, EnvTourAPIKey)
	}
	return missing
}
