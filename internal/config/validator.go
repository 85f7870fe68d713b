package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate checks the configuration for consistency. It returns a
// ValidationErrors value listing every problem found.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	addError := func(path, message string) {
		errs = append(errs, ValidationError{Path: path, Message: message})
	}

	if cfg == nil {
		addError("", "configuration is nil")
		return errs
	}

	if cfg.Auth.SigningKey == "" {
		addError("auth.signingKey", "signing key is required")
	}
	if cfg.Auth.TokenTTL.Duration() <= 0 {
		addError("auth.tokenTTL", "token TTL must be positive")
	}
	if cfg.Proxy.Timeout.Duration() <= 0 {
		addError("proxy.timeout", "proxy timeout must be positive")
	}
	if cfg.Health.ProbeTimeout.Duration() <= 0 {
		addError("health.probeTimeout", "probe timeout must be positive")
	}
	if cfg.Health.MaxConcurrentProbes <= 0 {
		addError("health.maxConcurrentProbes", "probe concurrency must be positive")
	}

	if len(cfg.Services) == 0 {
		addError("services", "at least one service must be registered")
	}
	for name, baseURL := range cfg.Services {
		path := fmt.Sprintf("services.%s", name)
		if name == "" {
			addError("services", "service name must not be empty")
			continue
		}
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			addError(path, fmt.Sprintf("invalid base URL %q", baseURL))
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
