package health

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fooddelivery/gateway/internal/observability"
	"github.com/fooddelivery/gateway/internal/registry"
)

// DefaultProbeTimeout bounds each individual health probe. It is shorter
// than the proxy timeout so one dead backend cannot stall the report.
const DefaultProbeTimeout = 5 * time.Second

// DefaultMaxConcurrentProbes bounds the probe fan-out.
const DefaultMaxConcurrentProbes = 5

// ServiceStatus is the probed reachability of one registered backend.
type ServiceStatus struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Status Status `json:"status"`
}

// Aggregator probes every registered backend's health endpoint and collects
// the results. Reports are recomputed on every call and never cached.
type Aggregator struct {
	registry     *registry.Registry
	client       *http.Client
	probeTimeout time.Duration
	maxProbes    int
	logger       observability.Logger
	metrics      *observability.Metrics
}

// AggregatorOption is a functional option for configuring the aggregator.
type AggregatorOption func(*Aggregator)

// WithAggregatorLogger sets the logger for the aggregator.
func WithAggregatorLogger(logger observability.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithProbeClient sets the HTTP client used for probes.
func WithProbeClient(client *http.Client) AggregatorOption {
	return func(a *Aggregator) {
		a.client = client
	}
}

// WithProbeTimeout sets the per-probe deadline.
func WithProbeTimeout(timeout time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.probeTimeout = timeout
	}
}

// WithMaxConcurrentProbes bounds how many probes run at once.
func WithMaxConcurrentProbes(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.maxProbes = n
	}
}

// WithAggregatorMetrics sets the metrics recorder for backend health.
func WithAggregatorMetrics(metrics *observability.Metrics) AggregatorOption {
	return func(a *Aggregator) {
		a.metrics = metrics
	}
}

// NewAggregator creates an aggregator over the given registry.
func NewAggregator(reg *registry.Registry, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		registry:     reg,
		probeTimeout: DefaultProbeTimeout,
		maxProbes:    DefaultMaxConcurrentProbes,
		logger:       observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.client == nil {
		a.client = &http.Client{Timeout: a.probeTimeout}
	}

	return a
}

// Aggregate probes all registered backends concurrently and returns one
// status per service, ordered by service name. Probes are independent: a
// slow or dead backend degrades to unhealthy/unknown in the report instead
// of delaying or omitting the others.
func (a *Aggregator) Aggregate(ctx context.Context) []ServiceStatus {
	entries := a.registry.Entries()
	results := make([]ServiceStatus, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxProbes)

	for i, entry := range entries {
		g.Go(func() error {
			results[i] = a.probe(ctx, entry)
			return nil
		})
	}

	// Probe goroutines never return errors; the join is a barrier.
	_ = g.Wait()

	if a.metrics != nil {
		for _, result := range results {
			a.metrics.SetBackendHealth(result.Name, result.Status == StatusHealthy)
		}
	}

	return results
}

// probe issues a single GET <baseURL>/health with a short deadline.
// HTTP 200 maps to healthy, any other status to unhealthy, and a transport
// failure to unknown.
func (a *Aggregator) probe(ctx context.Context, entry registry.Entry) ServiceStatus {
	status := ServiceStatus{
		Name: entry.Name,
		URL:  entry.BaseURL,
	}

	probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, entry.BaseURL+"/health", nil)
	if err != nil {
		status.Status = StatusUnknown
		return status
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Debug("health probe failed",
			observability.String("service", entry.Name),
			observability.Error(err),
		)
		status.Status = StatusUnknown
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		status.Status = StatusHealthy
	} else {
		status.Status = StatusUnhealthy
	}
	return status
}
