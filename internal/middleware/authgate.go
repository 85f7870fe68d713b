package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fooddelivery/gateway/internal/auth"
	"github.com/fooddelivery/gateway/internal/observability"
	"github.com/fooddelivery/gateway/internal/token"
	"github.com/fooddelivery/gateway/internal/util"
)

// bearerPrefix is the expected Authorization scheme.
const bearerPrefix = "Bearer "

// ExtractBearerToken extracts a bearer token from the Authorization header.
// It returns the empty string when the header is absent or not Bearer.
func ExtractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(bearerPrefix):])
}

// AuthGateOption is a functional option for the auth gate.
type AuthGateOption func(*authGate)

// WithAuthMetrics sets the metrics recorder for rejected requests.
func WithAuthMetrics(m *observability.Metrics) AuthGateOption {
	return func(g *authGate) {
		g.metrics = m
	}
}

type authGate struct {
	verifier token.Issuer
	metrics  *observability.Metrics
}

// AuthGate returns a middleware that requires a valid bearer token. On
// success the verified identity is attached to the request context; on
// failure the request is rejected with 401 before any handler below the
// gate runs, so a protected backend is never called unauthenticated.
func AuthGate(verifier token.Issuer, opts ...AuthGateOption) Middleware {
	g := &authGate{verifier: verifier}
	for _, opt := range opts {
		opt(g)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractBearerToken(r)
			if tokenString == "" {
				g.reject(w, "missing", "Authorization required",
					"Please provide a valid JWT token")
				return
			}

			identity, err := g.verifier.Verify(tokenString)
			if err != nil {
				if errors.Is(err, util.ErrTokenExpired) {
					g.reject(w, "expired", "Token has expired", "Please login again")
					return
				}
				g.reject(w, "malformed", "Invalid token", "Please provide a valid token")
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// reject writes a 401 envelope and records the failure reason.
func (g *authGate) reject(w http.ResponseWriter, reason, errText, message string) {
	if g.metrics != nil {
		g.metrics.RecordAuthFailure(reason)
	}
	util.WriteError(w, http.StatusUnauthorized, errText, message)
}

// RequireRole returns a middleware that rejects authenticated identities
// lacking the given role with 403. It must run below AuthGate.
func RequireRole(role string) Middleware {
	message := roleMessage(role)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				util.WriteError(w, http.StatusUnauthorized,
					"Authorization required",
					"Please provide a valid JWT token")
				return
			}
			if !identity.HasRole(role) {
				util.WriteError(w, http.StatusForbidden, "Forbidden", message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// roleMessage builds the 403 message, e.g. "Admin access required".
func roleMessage(role string) string {
	if role == "" {
		return "Access denied"
	}
	return strings.ToUpper(role[:1]) + role[1:] + " access required"
}
