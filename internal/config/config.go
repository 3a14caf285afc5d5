// Package config loads and validates application configuration from YAML files
// and environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBackendBaseURL is the canonical collection used when none is configured.
const DefaultBackendBaseURL = "http://localhost:8080/canonico"

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Identity      IdentityConfig      `yaml:"identity"`
	Backend       BackendConfig       `yaml:"backend"`
	Idempotency   IdempotencyConfig   `yaml:"idempotency"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig describes Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// IdentityConfig describes bearer token verification for UI requests.
// Authentication is disabled when SecretEnv is empty.
type IdentityConfig struct {
	Issuer     string   `yaml:"issuer"`
	Audience   string   `yaml:"audience"`
	SecretEnv  string   `yaml:"secret_env"`
	Algorithms []string `yaml:"algorithms"`
}

// Enabled reports whether UI requests must carry a verified token.
func (c IdentityConfig) Enabled() bool {
	return c.SecretEnv != ""
}

// BackendConfig describes the remote canonical collection.
type BackendConfig struct {
	BaseURL          string               `yaml:"base_url"`
	Timeout          time.Duration        `yaml:"timeout"`
	Headers          map[string]string    `yaml:"headers"`
	Auth             BackendAuthConfig    `yaml:"auth"`
	CircuitBreaker   CircuitBreakerConfig `yaml:"circuit_breaker"`
	ValidatePayloads bool                 `yaml:"validate_payloads"`
}

// Outbound authentication strategies.
const (
	AuthStrategyNone              = "none"
	AuthStrategyBearer            = "bearer"
	AuthStrategyClientCredentials = "client_credentials"
)

// BackendAuthConfig describes authentication for backend calls.
type BackendAuthConfig struct {
	Strategy        string   `yaml:"strategy"`
	TokenEnv        string   `yaml:"token_env"`
	ClientID        string   `yaml:"client_id"`
	ClientSecretEnv string   `yaml:"client_secret_env"`
	TokenEndpoint   string   `yaml:"token_endpoint"`
	Scopes          []string `yaml:"scopes"`
}

// CircuitBreakerConfig describes the optional backend circuit breaker.
// A FailureThreshold of zero disables it.
type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// IdempotencyConfig describes idempotency store settings for create commands.
type IdempotencyConfig struct {
	Enabled bool                   `yaml:"enabled"`
	Store   IdempotencyStoreConfig `yaml:"store"`
}

// IdempotencyStoreConfig describes idempotency persistence settings.
type IdempotencyStoreConfig struct {
	Driver     string        `yaml:"driver"`
	AddrEnv    string        `yaml:"addr_env"`
	DB         int           `yaml:"db"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// ObservabilityConfig describes logging, tracing, and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Tracing  TracingConfig `yaml:"tracing"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// TracingConfig describes distributed tracing settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			HandlerTimeout:  25 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type",
					"X-Correlation-Id", "X-Idempotency-Key"},
				MaxAge: 86400,
			},
		},
		Identity: IdentityConfig{
			Algorithms: []string{"HS256"},
		},
		Backend: BackendConfig{
			BaseURL: DefaultBackendBaseURL,
			Timeout: 10 * time.Second,
			Auth: BackendAuthConfig{
				Strategy: AuthStrategyNone,
			},
			CircuitBreaker: CircuitBreakerConfig{
				SuccessThreshold: 2,
				Timeout:          30 * time.Second,
			},
		},
		Idempotency: IdempotencyConfig{
			Store: IdempotencyStoreConfig{
				Driver:     "memory",
				DefaultTTL: 24 * time.Hour,
			},
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Tracing: TracingConfig{
				Exporter:     "otlp",
				SamplingRate: 0.1,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields. An empty path skips the file and uses
// defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend.base_url is required")
	} else if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "backend.base_url must be an absolute URL")
	}

	switch c.Backend.Auth.Strategy {
	case "", AuthStrategyNone:
	case AuthStrategyBearer:
		if c.Backend.Auth.TokenEnv == "" {
			errs = append(errs, "backend.auth.token_env is required for bearer auth")
		}
	case AuthStrategyClientCredentials:
		if c.Backend.Auth.ClientID == "" {
			errs = append(errs, "backend.auth.client_id is required for client_credentials auth")
		}
		if c.Backend.Auth.TokenEndpoint == "" {
			errs = append(errs, "backend.auth.token_endpoint is required for client_credentials auth")
		}
	default:
		errs = append(errs, fmt.Sprintf("backend.auth.strategy %q is not supported", c.Backend.Auth.Strategy))
	}

	if c.Backend.CircuitBreaker.FailureThreshold < 0 {
		errs = append(errs, "backend.circuit_breaker.failure_threshold must not be negative")
	}

	if c.Identity.Enabled() {
		if c.Identity.Issuer == "" {
			errs = append(errs, "identity.issuer is required when authentication is enabled")
		}
		if c.Identity.Audience == "" {
			errs = append(errs, "identity.audience is required when authentication is enabled")
		}
	}

	if c.Idempotency.Enabled {
		switch c.Idempotency.Store.Driver {
		case "memory", "":
		case "redis":
			if c.Idempotency.Store.AddrEnv == "" {
				errs = append(errs, "idempotency.store.addr_env is required for the redis driver")
			}
		default:
			errs = append(errs, fmt.Sprintf("idempotency.store.driver %q is not supported", c.Idempotency.Store.Driver))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads CANONICO_* environment variables and overrides config
// values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CANONICO_SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CANONICO_BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("CANONICO_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Timeout = d
		}
	}
	if v := os.Getenv("CANONICO_IDENTITY_ISSUER"); v != "" {
		cfg.Identity.Issuer = v
	}
	if v := os.Getenv("CANONICO_IDENTITY_AUDIENCE"); v != "" {
		cfg.Identity.Audience = v
	}
	if v := os.Getenv("CANONICO_OBSERVABILITY_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
}
