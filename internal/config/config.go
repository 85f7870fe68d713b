// Package config provides configuration loading and validation for the
// gateway.
package config

import (
	"time"
)

// Default configuration values.
const (
	// DefaultListenAddr is the default listen address for the gateway.
	DefaultListenAddr = ":8080"

	// DefaultProxyTimeout is the timeout for proxied downstream calls.
	DefaultProxyTimeout = 30 * time.Second

	// DefaultProbeTimeout is the timeout for backend health probes. It is
	// deliberately shorter than the proxy timeout so a dead backend cannot
	// stall the health report.
	DefaultProbeTimeout = 5 * time.Second

	// DefaultTokenTTL is the lifetime of an issued access token.
	DefaultTokenTTL = 24 * time.Hour

	// DefaultShutdownTimeout is the graceful shutdown drain period.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultMaxConcurrentProbes bounds the health probe fan-out.
	DefaultMaxConcurrentProbes = 5
)

// Config is the root gateway configuration.
type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Auth     AuthConfig        `yaml:"auth"`
	Proxy    ProxyConfig       `yaml:"proxy"`
	Health   HealthConfig      `yaml:"health"`
	Metrics  MetricsConfig     `yaml:"metrics"`
	Log      LogConfig         `yaml:"log"`
	Services map[string]string `yaml:"services"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Listen          string   `yaml:"listen"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	SigningKey string   `yaml:"signingKey"`
	TokenTTL   Duration `yaml:"tokenTTL"`
	Issuer     string   `yaml:"issuer"`
}

// ProxyConfig holds request forwarding settings.
type ProxyConfig struct {
	Timeout Duration `yaml:"timeout"`
}

// HealthConfig holds backend health probing settings.
type HealthConfig struct {
	ProbeTimeout        Duration `yaml:"probeTimeout"`
	MaxConcurrentProbes int      `yaml:"maxConcurrentProbes"`
}

// MetricsConfig holds the metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration populated with defaults and the standard
// food-delivery service registry.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          DefaultListenAddr,
			ShutdownTimeout: Duration(DefaultShutdownTimeout),
		},
		Auth: AuthConfig{
			TokenTTL: Duration(DefaultTokenTTL),
			Issuer:   "food-delivery-gateway",
		},
		Proxy: ProxyConfig{
			Timeout: Duration(DefaultProxyTimeout),
		},
		Health: HealthConfig{
			ProbeTimeout:        Duration(DefaultProbeTimeout),
			MaxConcurrentProbes: DefaultMaxConcurrentProbes,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Services: map[string]string{
			"user-service":       "http://localhost:5001",
			"restaurant-service": "http://localhost:5002",
			"order-service":      "http://localhost:5003",
			"delivery-service":   "http://localhost:5004",
			"payment-service":    "http://localhost:5005",
		},
	}
}

// applyDefaults fills zero values with defaults.
func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListenAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = Duration(DefaultTokenTTL)
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "food-delivery-gateway"
	}
	if c.Proxy.Timeout == 0 {
		c.Proxy.Timeout = Duration(DefaultProxyTimeout)
	}
	if c.Health.ProbeTimeout == 0 {
		c.Health.ProbeTimeout = Duration(DefaultProbeTimeout)
	}
	if c.Health.MaxConcurrentProbes == 0 {
		c.Health.MaxConcurrentProbes = DefaultMaxConcurrentProbes
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = 9090
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Services == nil {
		c.Services = Default().Services
	}
}
