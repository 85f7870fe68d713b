package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fooddelivery/gateway/internal/middleware"
	"github.com/fooddelivery/gateway/internal/util"
)

// setupRoutes builds the route table. Each entry composes its middleware
// chain explicitly: the base chain wraps every route, and the auth gate is
// added only where an identity is required.
func (g *Gateway) setupRoutes() {
	base := func(route string) []middleware.Middleware {
		mws := []middleware.Middleware{
			middleware.Recovery(g.logger),
			middleware.RequestID(),
			middleware.Logging(g.logger),
			middleware.CORS(middleware.DefaultCORSConfig()),
		}
		if g.metrics != nil {
			mws = append(mws, middleware.Metrics(g.metrics, route))
		}
		return mws
	}
	gate := middleware.AuthGate(g.tokens, middleware.WithAuthMetrics(g.metrics))

	mount := func(h http.Handler, mws ...middleware.Middleware) gin.HandlerFunc {
		wrapped := middleware.Chain(h, mws...)
		return func(c *gin.Context) {
			wrapped.ServeHTTP(c.Writer, c.Request)
		}
	}

	// Authentication endpoints.
	g.engine.POST("/auth/login", mount(g.handleLogin(), base("/auth/login")...))
	g.engine.POST("/auth/register", mount(g.handleRegister(), base("/auth/register")...))
	g.engine.GET("/auth/verify",
		mount(g.handleVerify(), append(base("/auth/verify"), gate)...))

	// Proxy routes: one wildcard entry per HTTP method, all feeding the
	// forwarder.
	proxyChain := mount(g.handleProxy(), base("/api/:service/*path")...)
	for _, method := range []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete,
	} {
		g.engine.Handle(method, "/api/:service/*path", proxyChain)
	}
	g.engine.OPTIONS("/api/:service/*path", proxyChain)

	// System endpoints.
	g.engine.GET("/", mount(g.handleRoot(), base("/")...))
	g.engine.GET("/health", mount(g.handleHealth(), base("/health")...))
	g.engine.GET("/services", mount(g.handleServices(), base("/services")...))

	g.engine.NoRoute(func(c *gin.Context) {
		util.WriteError(c.Writer, http.StatusNotFound,
			"Endpoint not found",
			"The requested endpoint does not exist",
		)
	})
}
