package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gateway.yaml")

	configContent := `
server:
  listen: ":9999"
  shutdownTimeout: "10s"
auth:
  signingKey: "test-key"
  tokenTTL: "1h"
  issuer: "test-issuer"
proxy:
  timeout: "15s"
health:
  probeTimeout: "2s"
  maxConcurrentProbes: 3
services:
  user-service: "http://localhost:5001"
  order-service: "http://localhost:5003"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":9999", cfg.Server.Listen)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "test-key", cfg.Auth.SigningKey)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL.Duration())
	assert.Equal(t, "test-issuer", cfg.Auth.Issuer)
	assert.Equal(t, 15*time.Second, cfg.Proxy.Timeout.Duration())
	assert.Equal(t, 2*time.Second, cfg.Health.ProbeTimeout.Duration())
	assert.Equal(t, 3, cfg.Health.MaxConcurrentProbes)
	assert.Len(t, cfg.Services, 2)
	assert.Equal(t, "http://localhost:5001", cfg.Services["user-service"])
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/gateway.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	err := os.WriteFile(configPath, []byte("server: [not: valid"), 0644)
	require.NoError(t, err)

	_, err = Load(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(`
auth:
  signingKey: "reader-key"
services:
  payment-service: "http://localhost:5005"
`))
	require.NoError(t, err)
	assert.Equal(t, "reader-key", cfg.Auth.SigningKey)
	assert.Equal(t, "http://localhost:5005", cfg.Services["payment-service"])
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	// A minimal document still comes back fully populated.
	cfg, err := LoadFromReader(strings.NewReader(`auth: {signingKey: "k"}`))
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.Server.Listen)
	assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, DefaultTokenTTL, cfg.Auth.TokenTTL.Duration())
	assert.Equal(t, "food-delivery-gateway", cfg.Auth.Issuer)
	assert.Equal(t, DefaultProxyTimeout, cfg.Proxy.Timeout.Duration())
	assert.Equal(t, DefaultProbeTimeout, cfg.Health.ProbeTimeout.Duration())
	assert.Equal(t, DefaultMaxConcurrentProbes, cfg.Health.MaxConcurrentProbes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Len(t, cfg.Services, 5)
	assert.Equal(t, "http://localhost:5002", cfg.Services["restaurant-service"])
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("GATEWAY_TEST_VAR", "from-env")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "set variable",
			input:    "key: ${GATEWAY_TEST_VAR}",
			expected: "key: from-env",
		},
		{
			name:     "set variable ignores default",
			input:    "key: ${GATEWAY_TEST_VAR:-fallback}",
			expected: "key: from-env",
		},
		{
			name:     "unset variable with default",
			input:    "key: ${GATEWAY_UNSET_VAR:-fallback}",
			expected: "key: fallback",
		},
		{
			name:     "unset variable without default",
			input:    "key: ${GATEWAY_UNSET_VAR}",
			expected: "key: ",
		},
		{
			name:     "escaped dollar",
			input:    "key: $${NOT_A_VAR}",
			expected: "key: ${NOT_A_VAR}",
		},
		{
			name:     "no variables",
			input:    "key: plain",
			expected: "key: plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, substituteEnvVars(tt.input))
		})
	}
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("GATEWAY_SIGNING_KEY", "secret-from-env")

	cfg, err := LoadFromReader(strings.NewReader(`
auth:
  signingKey: "${GATEWAY_SIGNING_KEY:-default-key}"
services:
  user-service: "${USER_SVC_URL_UNSET:-http://localhost:5001}"
`))
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Auth.SigningKey)
	assert.Equal(t, "http://localhost:5001", cfg.Services["user-service"])
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultListenAddr, cfg.Server.Listen)
	assert.Len(t, cfg.Services, 5)
	for _, name := range []string{
		"user-service", "restaurant-service", "order-service",
		"delivery-service", "payment-service",
	} {
		assert.Contains(t, cfg.Services, name)
	}
}
