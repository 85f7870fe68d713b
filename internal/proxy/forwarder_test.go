package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddelivery/gateway/internal/registry"
	"github.com/fooddelivery/gateway/internal/util"
)

// failingTransport fails the test if any request reaches it.
type failingTransport struct {
	t *testing.T
}

func (ft *failingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ft.t.Errorf("unexpected downstream call to %s", r.URL)
	return nil, io.EOF
}

// errorTransport returns a fixed error for every request.
type errorTransport struct {
	err error
}

func (et *errorTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, et.err
}

func decodeEnvelope(t *testing.T, body io.Reader) util.Envelope {
	t.Helper()
	var env util.Envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestForward_UnregisteredService(t *testing.T) {
	t.Parallel()

	reg := registry.New(map[string]string{"user-service": "http://localhost:5001"})
	f := NewForwarder(reg, WithTransport(&failingTransport{t: t}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search-service/query", nil)

	f.Forward(rec, req, "search-service", "query")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	assert.False(t, env.Success)
	assert.Equal(t, "Service not found", env.Error)
	assert.Equal(t, "Service 'search-service' is not available", env.Message)
}

func TestForward_PassThrough(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/42", r.URL.Path)
		assert.Equal(t, "page=2&limit=10", r.URL.RawQuery)
		assert.Equal(t, "custom-value", r.Header.Get("X-Custom"))
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"alice"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Backend", "user-service")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"name":"alice"}`))
	}))
	defer backend.Close()

	reg := registry.New(map[string]string{"user-service": backend.URL})
	f := NewForwarder(reg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/user-service/users/42?page=2&limit=10",
		strings.NewReader(`{"name":"alice"}`))
	req.Header.Set("X-Custom", "custom-value")
	req.Header.Set("Authorization", "Bearer token123")

	f.Forward(rec, req, "user-service", "users/42")

	// Downstream status, headers, and body pass through verbatim.
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "user-service", rec.Header().Get("X-Backend"))
	assert.JSONEq(t, `{"id":42,"name":"alice"}`, rec.Body.String())
}

func TestForward_HostHeaderReplaced(t *testing.T) {
	t.Parallel()

	var gotHost string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	reg := registry.New(map[string]string{"user-service": backend.URL})
	f := NewForwarder(reg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user-service/users", nil)
	req.Host = "gateway.example.com"

	f.Forward(rec, req, "user-service", "users")

	// The backend sees its own host, never the gateway's.
	backendHost := strings.TrimPrefix(backend.URL, "http://")
	assert.Equal(t, backendHost, gotHost)
}

func TestForward_ErrorStatusPassThrough(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "user not found", http.StatusNotFound)
	}))
	defer backend.Close()

	reg := registry.New(map[string]string{"user-service": backend.URL})
	f := NewForwarder(reg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user-service/users/999", nil)

	f.Forward(rec, req, "user-service", "users/999")

	// A backend 404 is relayed as-is, not rewrapped in a gateway envelope.
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
}

func TestForward_BackendUnreachable(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close() // nothing listens here anymore

	reg := registry.New(map[string]string{"order-service": backend.URL})
	f := NewForwarder(reg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/order-service/orders", nil)

	f.Forward(rec, req, "order-service", "orders")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "Service 'order-service' is currently unavailable", env.Error)
	assert.Equal(t, "Please try again later", env.Message)
}

func TestForward_BackendTimeout(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer backend.Close()

	reg := registry.New(map[string]string{"payment-service": backend.URL})
	f := NewForwarder(reg, WithTimeout(50*time.Millisecond))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/payment-service/payments", nil)

	f.Forward(rec, req, "payment-service", "payments")

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "Service 'payment-service' request timeout", env.Error)
	assert.Equal(t, "Request took too long to complete", env.Message)
}

func TestForward_InternalError(t *testing.T) {
	t.Parallel()

	reg := registry.New(map[string]string{"user-service": "http://localhost:5001"})
	f := NewForwarder(reg, WithTransport(&errorTransport{err: io.ErrClosedPipe}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user-service/users", nil)

	f.Forward(rec, req, "user-service", "users")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "Internal gateway error", env.Error)
	assert.Equal(t, "An unexpected error occurred", env.Message)
}

func TestClassifyTransportError(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	f := NewForwarder(reg, WithTimeout(10*time.Second))

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			expected: util.ErrBackendTimeout,
		},
		{
			name:     "op error",
			err:      &net.OpError{Op: "dial", Err: io.EOF},
			expected: util.ErrBackendUnreachable,
		},
		{
			name:     "dns error",
			err:      &net.DNSError{Err: "no such host", Name: "nowhere"},
			expected: util.ErrBackendUnreachable,
		},
		{
			name:     "eof",
			err:      io.EOF,
			expected: util.ErrBackendUnreachable,
		},
		{
			name:     "unexpected eof",
			err:      io.ErrUnexpectedEOF,
			expected: util.ErrBackendUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			classified := f.classifyTransportError("user-service", tt.err)
			assert.ErrorIs(t, classified, tt.expected)
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestClassifyTransportError_StructuredTypes(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	f := NewForwarder(reg, WithTimeout(10*time.Second))

	t.Run("timeout carries service and deadline", func(t *testing.T) {
		t.Parallel()

		classified := f.classifyTransportError("payment-service", context.DeadlineExceeded)

		var terr *util.TimeoutError
		require.ErrorAs(t, classified, &terr)
		assert.Equal(t, "payment-service", terr.Service)
		assert.Equal(t, 10*time.Second, terr.Duration)
		assert.Equal(t, http.StatusGatewayTimeout, util.HTTPStatus(classified))
	})

	t.Run("unreachable carries service and cause", func(t *testing.T) {
		t.Parallel()

		cause := &net.OpError{Op: "dial", Err: io.EOF}
		classified := f.classifyTransportError("order-service", cause)

		var berr *util.BackendError
		require.ErrorAs(t, classified, &berr)
		assert.Equal(t, "order-service", berr.Service)
		assert.ErrorIs(t, berr.Unwrap(), cause)
		assert.Equal(t, http.StatusServiceUnavailable, util.HTTPStatus(classified))
	})

	t.Run("unrecognized error remains internal", func(t *testing.T) {
		t.Parallel()

		classified := f.classifyTransportError("user-service", io.ErrClosedPipe)
		assert.Equal(t, http.StatusInternalServerError, util.HTTPStatus(classified))
	})
}

func TestBuildRequest_StripsHopHeaders(t *testing.T) {
	t.Parallel()

	reg := registry.New(map[string]string{"user-service": "http://localhost:5001"})
	f := NewForwarder(reg)

	req := httptest.NewRequest(http.MethodGet, "/api/user-service/users", nil)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Keep-Alive", "timeout=5")
	req.Header.Set("Proxy-Authorization", "Basic abc")
	req.Header.Set("X-Custom", "kept")

	outbound, err := f.buildRequest(req, "http://localhost:5001", "users")
	require.NoError(t, err)

	assert.Empty(t, outbound.Header.Get("Connection"))
	assert.Empty(t, outbound.Header.Get("Keep-Alive"))
	assert.Empty(t, outbound.Header.Get("Proxy-Authorization"))
	assert.Equal(t, "kept", outbound.Header.Get("X-Custom"))
	assert.Equal(t, "http://localhost:5001/users", outbound.URL.String())
}

func TestBuildRequest_PathJoin(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	f := NewForwarder(reg)

	tests := []struct {
		name     string
		baseURL  string
		subPath  string
		expected string
	}{
		{
			name:     "trailing slash on base",
			baseURL:  "http://localhost:5001/",
			subPath:  "users",
			expected: "http://localhost:5001/users",
		},
		{
			name:     "leading slash on path",
			baseURL:  "http://localhost:5001",
			subPath:  "/users",
			expected: "http://localhost:5001/users",
		},
		{
			name:     "nested path",
			baseURL:  "http://localhost:5001",
			subPath:  "users/42/orders",
			expected: "http://localhost:5001/users/42/orders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/ignored", nil)
			outbound, err := f.buildRequest(req, tt.baseURL, tt.subPath)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, outbound.URL.String())
		})
	}
}
