// Package proxy provides the request forwarder, the component that turns
// one inbound HTTP request into one outbound request to a backend service
// and relays the response.
//
// The forwarder resolves the logical service name through the registry,
// rebuilds the downstream URL from the base URL and the inbound sub-path,
// copies method, headers (minus Host and hop-by-hop headers), query string,
// and body verbatim, and passes the downstream status and body through
// unchanged. Transport failures are translated to stable gateway responses:
// 503 when the backend is unreachable, 504 on deadline, 500 for anything
// else, always in the {success, error, message} envelope and never exposing
// the underlying error text to the caller.
//
// The forwarder performs no retries and has no side effects of its own.
//
// # Usage
//
//	fwd := proxy.NewForwarder(reg,
//	    proxy.WithLogger(logger),
//	    proxy.WithTimeout(30*time.Second),
//	)
//	fwd.Forward(w, r, "user-service", "api/users/1")
package proxy
