// Package middleware provides HTTP middleware for the gateway. Middleware
// are plain request-transforming functions composed explicitly per route,
// not annotation-driven dispatch.
package middleware

import "net/http"

// Middleware is a request-transforming function wrapping an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to a handler. The first middleware in the list
// is the outermost, so Chain(h, a, b) serves a(b(h)).
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
