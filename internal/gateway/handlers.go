package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fooddelivery/gateway/internal/auth"
	"github.com/fooddelivery/gateway/internal/observability"
	"github.com/fooddelivery/gateway/internal/util"
)

// loginRequest is the body of POST /auth/login. Username accepts either a
// username or an email address.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the success body of POST /auth/login.
type loginResponse struct {
	Success     bool          `json:"success"`
	AccessToken string        `json:"access_token"`
	User        auth.Identity `json:"user"`
	Message     string        `json:"message"`
}

// registerRequest is the body of POST /auth/register.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// verifyResponse is the success body of GET /auth/verify.
type verifyResponse struct {
	Success bool          `json:"success"`
	User    auth.Identity `json:"user"`
}

// handleLogin authenticates a credential and issues an access token.
func (g *Gateway) handleLogin() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
			util.WriteJSON(w, http.StatusBadRequest, util.Envelope{
				Success: false,
				Message: "Username/email and password are required",
			})
			return
		}

		identity, err := g.store.Authenticate(req.Username, req.Password)
		if err != nil {
			// Uniform response whether the identifier or the
			// password was wrong.
			if g.metrics != nil {
				g.metrics.RecordAuthFailure("credentials")
			}
			util.WriteJSON(w, http.StatusUnauthorized, util.Envelope{
				Success: false,
				Message: "Invalid credentials",
			})
			return
		}

		accessToken, err := g.tokens.Issue(identity)
		if err != nil {
			g.logger.Error("failed to issue token",
				observability.String("username", identity.Username),
				observability.Error(err),
			)
			util.WriteError(w, http.StatusInternalServerError,
				"Internal server error",
				"An unexpected error occurred",
			)
			return
		}

		util.WriteJSON(w, http.StatusOK, loginResponse{
			Success:     true,
			AccessToken: accessToken,
			User:        identity,
			Message:     "Login successful",
		})
	})
}

// handleRegister validates a registration request. Registration never
// persists: the credential store is a fixed seed set standing in for an
// external identity provider.
func (g *Gateway) handleRegister() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			util.WriteJSON(w, http.StatusBadRequest, util.Envelope{
				Success: false,
				Message: "Username, password, and email are required",
			})
			return
		}

		if err := g.store.Register(req.Username, req.Password, req.Email); err != nil {
			message := "Username, password, and email are required"
			var verr *util.ValidationError
			if errors.As(err, &verr) && verr.Fields["username"] == "already exists" {
				message = "Username already exists"
			}
			util.WriteJSON(w, http.StatusBadRequest, util.Envelope{
				Success: false,
				Message: message,
			})
			return
		}

		util.WriteJSON(w, http.StatusCreated, util.Envelope{
			Success: true,
			Message: "User registered successfully",
		})
	})
}

// handleVerify returns the identity attached by the auth gate.
func (g *Gateway) handleVerify() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			util.WriteError(w, http.StatusUnauthorized,
				"Authorization required",
				"Please provide a valid JWT token",
			)
			return
		}
		util.WriteJSON(w, http.StatusOK, verifyResponse{
			Success: true,
			User:    identity,
		})
	})
}

// handleProxy extracts the logical service name and sub-path from the URL
// and hands the request to the forwarder.
func (g *Gateway) handleProxy() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serviceName, subPath, ok := splitProxyPath(r.URL.Path)
		if !ok {
			util.WriteError(w, http.StatusNotFound,
				"Endpoint not found",
				"The requested endpoint does not exist",
			)
			return
		}
		g.forwarder.Forward(w, r, serviceName, subPath)
	})
}

// splitProxyPath splits "/api/<service>/<sub-path...>" into its service name
// and sub-path components.
func splitProxyPath(path string) (service, subPath string, ok bool) {
	rest, found := strings.CutPrefix(path, "/api/")
	if !found || rest == "" {
		return "", "", false
	}
	service, subPath, found = strings.Cut(rest, "/")
	if !found || service == "" || subPath == "" {
		return "", "", false
	}
	return service, subPath, true
}

// handleHealth reports the gateway's own liveness. It is 200 for as long as
// the process is up; backend reachability is reported by /services instead.
func (g *Gateway) handleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, http.StatusOK, g.checker.Health())
	})
}

// servicesResponse is the body of GET /services.
type servicesResponse struct {
	Services any `json:"services"`
}

// handleServices probes every registered backend and reports reachability.
func (g *Gateway) handleServices() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		statuses := g.aggregator.Aggregate(r.Context())
		util.WriteJSON(w, http.StatusOK, servicesResponse{Services: statuses})
	})
}

// handleRoot returns the static service description payload.
func (g *Gateway) handleRoot() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serviceEndpoints := make(map[string]string, g.registry.Len())
		for _, name := range g.registry.Names() {
			serviceEndpoints[name] = "/api/" + name + "/"
		}

		util.WriteJSON(w, http.StatusOK, map[string]any{
			"service":     "Food Delivery System API Gateway",
			"version":     g.version,
			"description": "API gateway for the food delivery microservices",
			"endpoints": map[string]any{
				"health": "/health",
				"auth": map[string]string{
					"login":    "/auth/login",
					"register": "/auth/register",
					"verify":   "/auth/verify",
				},
				"services": serviceEndpoints,
			},
			"authentication": "JWT Bearer Token",
		})
	})
}
