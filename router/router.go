package router

import (
	"context"
	"net/http"
)

// Param is a single named path parameter captured by a route match.
type Param struct {
	Key   string
	Value string
}

// Params is the ordered set of named parameters matched for a request.
type Params []Param

// Get returns the value of the parameter named key, or "" if absent.
func (p Params) Get(key string) string {
	for _, param := range p {
		if param.Key == key {
			return param.Value
		}
	}
	return ""
}

// ParamGeter extracts the matched Params from a request context. Each
// concrete router implementation stores params under its own context key,
// so it supplies its own ParamGeter rather than sharing one.
type ParamGeter interface {
	Get(ctx context.Context) Params
}

// Router is the contract every concrete router implementation (servemux,
// httprouter, ...) satisfies, so the rest of the application can register
// routes and dispatch requests without depending on which one is mounted.
type Router interface {
	http.Handler
	Handle(pattern string, handler http.Handler)
	HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request))
	Param(r *http.Request, key string) string
	Register(routes ...*Route)
}
