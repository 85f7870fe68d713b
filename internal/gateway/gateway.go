// Package gateway wires the route table, auth endpoints, and the request
// forwarder into an HTTP server.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fooddelivery/gateway/internal/auth"
	"github.com/fooddelivery/gateway/internal/config"
	"github.com/fooddelivery/gateway/internal/health"
	"github.com/fooddelivery/gateway/internal/observability"
	"github.com/fooddelivery/gateway/internal/proxy"
	"github.com/fooddelivery/gateway/internal/registry"
	"github.com/fooddelivery/gateway/internal/token"
)

// State represents the gateway lifecycle state.
type State int32

const (
	// StateStopped indicates the gateway is stopped.
	StateStopped State = iota
	// StateRunning indicates the gateway is running.
	StateRunning
)

// Gateway binds the forwarder, token verifier, and health aggregator to the
// HTTP route table.
type Gateway struct {
	cfg        *config.Config
	logger     observability.Logger
	metrics    *observability.Metrics
	registry   *registry.Registry
	store      *auth.Store
	tokens     token.Issuer
	forwarder  *proxy.Forwarder
	checker    *health.Checker
	aggregator *health.Aggregator

	engine  *gin.Engine
	server  *http.Server
	state   atomic.Int32
	version string
}

// Option is a functional option for configuring the gateway.
type Option func(*Gateway)

// WithGatewayLogger sets the logger.
func WithGatewayLogger(logger observability.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithGatewayMetrics sets the metrics recorder.
func WithGatewayMetrics(m *observability.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithCredentialStore overrides the credential store.
func WithCredentialStore(store *auth.Store) Option {
	return func(g *Gateway) {
		g.store = store
	}
}

// WithTokenIssuer overrides the token issuer, e.g. with a fixed-clock
// variant in tests.
func WithTokenIssuer(issuer token.Issuer) Option {
	return func(g *Gateway) {
		g.tokens = issuer
	}
}

// WithForwarder overrides the request forwarder.
func WithForwarder(f *proxy.Forwarder) Option {
	return func(g *Gateway) {
		g.forwarder = f
	}
}

// WithAggregator overrides the health aggregator.
func WithAggregator(a *health.Aggregator) Option {
	return func(g *Gateway) {
		g.aggregator = a
	}
}

// WithVersion sets the version string reported by the info endpoints.
func WithVersion(version string) Option {
	return func(g *Gateway) {
		g.version = version
	}
}

// New creates a gateway from configuration. The registry, credential store,
// token issuer, forwarder, and aggregator are constructed explicitly here
// and injected into the route table; there are no process-wide mutable
// singletons.
func New(cfg *config.Config, opts ...Option) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	g := &Gateway{
		cfg:      cfg,
		logger:   observability.NopLogger(),
		registry: registry.New(cfg.Services),
		version:  "1.0.0",
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.store == nil {
		store, err := auth.NewStore(auth.DefaultCredentials())
		if err != nil {
			return nil, fmt.Errorf("failed to build credential store: %w", err)
		}
		g.store = store
	}

	if g.tokens == nil {
		issuer, err := token.NewHMACIssuer(cfg.Auth.SigningKey,
			token.WithTTL(cfg.Auth.TokenTTL.Duration()),
			token.WithIssuer(cfg.Auth.Issuer),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build token issuer: %w", err)
		}
		g.tokens = issuer
	}

	if g.forwarder == nil {
		g.forwarder = proxy.NewForwarder(g.registry,
			proxy.WithLogger(g.logger),
			proxy.WithTimeout(cfg.Proxy.Timeout.Duration()),
			proxy.WithMetrics(g.metrics),
		)
	}

	if g.aggregator == nil {
		g.aggregator = health.NewAggregator(g.registry,
			health.WithAggregatorLogger(g.logger),
			health.WithProbeTimeout(cfg.Health.ProbeTimeout.Duration()),
			health.WithMaxConcurrentProbes(cfg.Health.MaxConcurrentProbes),
			health.WithAggregatorMetrics(g.metrics),
		)
	}

	g.checker = health.NewChecker(g.version, g.registry.Names())

	gin.SetMode(gin.ReleaseMode)
	g.engine = gin.New()
	g.setupRoutes()

	g.state.Store(int32(StateStopped))

	return g, nil
}

// Handler returns the gateway's HTTP handler, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.engine
}

// Start starts the HTTP server. It returns once the server is listening;
// serve errors are logged.
func (g *Gateway) Start(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return fmt.Errorf("gateway is already running")
	}

	g.server = &http.Server{
		Addr:              g.cfg.Server.Listen,
		Handler:           g.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		g.logger.Info("gateway listening",
			observability.String("address", g.cfg.Server.Listen),
			observability.Int("services", g.registry.Len()),
		)
		if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("server error", observability.Error(err))
		}
	}()

	return nil
}

// Stop shuts the server down gracefully, draining in-flight requests until
// the context deadline.
func (g *Gateway) Stop(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateRunning), int32(StateStopped)) {
		return fmt.Errorf("gateway is not running")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
	}

	g.logger.Info("stopping gateway")
	return g.server.Shutdown(ctx)
}

// IsRunning reports whether the gateway is serving.
func (g *Gateway) IsRunning() bool {
	return State(g.state.Load()) == StateRunning
}
