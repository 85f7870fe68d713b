package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fooddelivery/gateway/internal/observability"
	"github.com/fooddelivery/gateway/internal/registry"
	"github.com/fooddelivery/gateway/internal/util"
)

// DefaultTimeout is the deadline for proxied downstream calls.
const DefaultTimeout = 30 * time.Second

// hopHeaders are headers that must not be forwarded in either direction.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// isHopHeader reports whether key names one of the hop-by-hop headers.
func isHopHeader(key string) bool {
	canonical := http.CanonicalHeaderKey(key)
	for _, h := range hopHeaders {
		if canonical == http.CanonicalHeaderKey(h) {
			return true
		}
	}
	return false
}

// Forwarder relays inbound requests to registered backend services.
type Forwarder struct {
	registry  *registry.Registry
	transport http.RoundTripper
	timeout   time.Duration
	logger    observability.Logger
	metrics   *observability.Metrics
}

// Option is a functional option for configuring the forwarder.
type Option func(*Forwarder)

// WithLogger sets the logger for the forwarder.
func WithLogger(logger observability.Logger) Option {
	return func(f *Forwarder) {
		f.logger = logger
	}
}

// WithTransport sets the transport used for downstream calls.
func WithTransport(transport http.RoundTripper) Option {
	return func(f *Forwarder) {
		f.transport = transport
	}
}

// WithTimeout sets the deadline for downstream calls.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Forwarder) {
		f.timeout = timeout
	}
}

// WithMetrics sets the metrics recorder for forwarding failures.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(f *Forwarder) {
		f.metrics = metrics
	}
}

// NewForwarder creates a new forwarder over the given registry.
func NewForwarder(reg *registry.Registry, opts ...Option) *Forwarder {
	f := &Forwarder{
		registry:  reg,
		transport: http.DefaultTransport,
		timeout:   DefaultTimeout,
		logger:    observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Forward relays the inbound request to the named backend service at the
// given sub-path and writes the downstream response (or a gateway error
// envelope) to w.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, serviceName, subPath string) {
	baseURL, err := f.registry.Resolve(serviceName)
	if err != nil {
		// No network call is attempted for unregistered services.
		f.logger.Debug("service not registered",
			observability.String("service", serviceName),
			observability.String("path", r.URL.Path),
		)
		util.WriteError(w, http.StatusNotFound,
			"Service not found",
			fmt.Sprintf("Service '%s' is not available", serviceName),
		)
		return
	}

	outbound, err := f.buildRequest(r, baseURL, subPath)
	if err != nil {
		f.logger.Error("failed to build downstream request",
			observability.String("service", serviceName),
			observability.Error(err),
		)
		util.WriteError(w, http.StatusInternalServerError,
			"Internal gateway error",
			"An unexpected error occurred",
		)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), f.timeout)
	defer cancel()
	outbound = outbound.WithContext(ctx)

	client := &http.Client{Transport: f.transport}
	resp, err := client.Do(outbound)
	if err != nil {
		f.writeTransportError(w, serviceName, err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	f.relayResponse(w, resp)
}

// buildRequest constructs the outbound request: downstream URL from the base
// URL and sub-path with the inbound query preserved verbatim, inbound method
// and raw body unchanged, and all headers except Host and hop-by-hop ones.
func (f *Forwarder) buildRequest(r *http.Request, baseURL, subPath string) (*http.Request, error) {
	target := strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(subPath, "/")
	targetURL, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	targetURL.RawQuery = r.URL.RawQuery

	outbound, err := http.NewRequest(r.Method, targetURL.String(), r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	outbound.ContentLength = r.ContentLength

	// Copy headers. The Host header is never forwarded: the transport
	// substitutes the downstream target's host, otherwise virtual-hosted
	// backends would misroute.
	for key, values := range r.Header {
		if http.CanonicalHeaderKey(key) == "Host" {
			continue
		}
		for _, value := range values {
			outbound.Header.Add(key, value)
		}
	}
	for _, h := range hopHeaders {
		outbound.Header.Del(h)
	}

	return outbound, nil
}

// relayResponse passes the downstream status code and body through
// unchanged, preserving the original Content-Type.
func (f *Forwarder) relayResponse(w http.ResponseWriter, resp *http.Response) {
	header := w.Header()
	for key, values := range resp.Header {
		if isHopHeader(key) {
			continue
		}
		for _, value := range values {
			header.Add(key, value)
		}
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		f.logger.Debug("failed to relay response body", observability.Error(err))
	}
}

// writeTransportError maps a downstream transport failure to a stable
// gateway response. The underlying error text is logged, never returned to
// the caller.
func (f *Forwarder) writeTransportError(w http.ResponseWriter, serviceName string, err error) {
	classified := f.classifyTransportError(serviceName, err)

	switch util.HTTPStatus(classified) {
	case http.StatusGatewayTimeout:
		f.logger.Error("backend timeout",
			observability.String("service", serviceName),
			observability.Duration("timeout", f.timeout),
			observability.Error(classified),
		)
		f.recordError(serviceName, "timeout")
		util.WriteError(w, http.StatusGatewayTimeout,
			fmt.Sprintf("Service '%s' request timeout", serviceName),
			"Request took too long to complete",
		)
	case http.StatusServiceUnavailable:
		f.logger.Error("backend unreachable",
			observability.String("service", serviceName),
			observability.Error(classified),
		)
		f.recordError(serviceName, "unreachable")
		util.WriteError(w, http.StatusServiceUnavailable,
			fmt.Sprintf("Service '%s' is currently unavailable", serviceName),
			"Please try again later",
		)
	default:
		f.logger.Error("gateway transport error",
			observability.String("service", serviceName),
			observability.Error(classified),
		)
		f.recordError(serviceName, "internal")
		util.WriteError(w, http.StatusInternalServerError,
			"Internal gateway error",
			"An unexpected error occurred",
		)
	}
}

// recordError records a failed downstream call when metrics are wired.
func (f *Forwarder) recordError(serviceName, reason string) {
	if f.metrics != nil {
		f.metrics.RecordForwardError(serviceName, reason)
	}
}

// classifyTransportError maps a transport error to the gateway taxonomy:
// deadline overruns become a util.TimeoutError, connection-level failures a
// util.BackendError, anything else passes through as an internal fault. The
// structured types carry the service name and cause for the server-side log.
func (f *Forwarder) classifyTransportError(serviceName string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return util.NewTimeoutError(serviceName, f.timeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return util.NewTimeoutError(serviceName, f.timeout, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return util.NewBackendError(serviceName, "connection failed", err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return util.NewBackendError(serviceName, "dns lookup failed", err)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return util.NewBackendError(serviceName, "connection closed", err)
	}

	return err
}
