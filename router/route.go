package router

import "net/http"

// Route pairs a URL pattern (Go 1.22 "METHOD /path" form) with the handler
// chain that serves it. Routers consume Routes through Register so callers
// never depend on a concrete Chain/Chains shape.
type Route struct {
	pattern string
	chain   *Chain
}

// NewRoute starts a Route for pattern. pattern follows the same syntax
// net/http.ServeMux and httprouter.Router.Handler expect, e.g. "GET /jobs".
func NewRoute(pattern string) *Route {
	if pattern == "" {
		panic("route pattern cannot be empty")
	}
	return &Route{pattern: pattern}
}

// WithHandler sets the route's base handler.
func (rt *Route) WithHandler(h http.Handler) *Route {
	rt.chain = NewChain(h)
	return rt
}

// WithHandlerFunc sets the route's base handler from a plain function.
func (rt *Route) WithHandlerFunc(f http.HandlerFunc) *Route {
	rt.chain = NewChain(f)
	return rt
}

// WithMiddleware prepends middlewares to the route's chain, see Chain.WithMiddleware.
func (rt *Route) WithMiddleware(middlewares ...func(http.Handler) http.Handler) *Route {
	rt.chain.WithMiddleware(middlewares...)
	return rt
}

// WithMiddlewareChain prepends a slice of middlewares, see Chain.WithMiddlewareChain.
func (rt *Route) WithMiddlewareChain(middlewares []func(http.Handler) http.Handler) *Route {
	rt.chain.WithMiddlewareChain(middlewares)
	return rt
}

// WithObservers adds handlers that run after the route's handler chain.
func (rt *Route) WithObservers(observers ...http.Handler) *Route {
	rt.chain.WithObservers(observers...)
	return rt
}

// Pattern returns the route's registration pattern.
func (rt *Route) Pattern() string {
	return rt.pattern
}

// Handler returns the fully assembled handler. It panics if the route was
// never given a base handler, matching Chain's own nil-handler panic.
func (rt *Route) Handler() http.Handler {
	if rt.chain == nil {
		panic("route has no handler")
	}
	return rt.chain.Handler()
}
