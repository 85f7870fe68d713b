// Package health provides the gateway's own liveness check and the backend
// health aggregator.
package health

import (
	"time"
)

// Status represents a health state.
type Status string

const (
	// StatusHealthy indicates the service answered its health endpoint
	// with HTTP 200.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the service answered with a non-200
	// status.
	StatusUnhealthy Status = "unhealthy"
	// StatusUnknown indicates the probe failed at the transport level.
	StatusUnknown Status = "unknown"
)

// GatewayHealth is the gateway's own liveness payload.
type GatewayHealth struct {
	Status    Status    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Services  []string  `json:"services"`
	Timestamp time.Time `json:"timestamp"`
}

// Checker reports the gateway's own liveness. The gateway holds no state of
// its own, so it is healthy for as long as the process is up.
type Checker struct {
	version   string
	services  []string
	startTime time.Time
}

// NewChecker creates a liveness checker.
func NewChecker(version string, services []string) *Checker {
	return &Checker{
		version:   version,
		services:  services,
		startTime: time.Now(),
	}
}

// Health returns the gateway liveness payload.
func (c *Checker) Health() GatewayHealth {
	return GatewayHealth{
		Status:    StatusHealthy,
		Service:   "api-gateway",
		Version:   c.version,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Services:  c.services,
		Timestamp: time.Now().UTC(),
	}
}
