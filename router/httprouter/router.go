package httprouter

import (
	"context"
	"strings"

	"github.com/caasmo/restinpieces/router"
	jshttprouter "github.com/julienschmidt/httprouter"
	"net/http"
)

// Router implements router.Router on top of julienschmidt/httprouter.
type Router struct {
	*jshttprouter.Router
}

func New() *Router {
	return &Router{jshttprouter.New()}
}

// Handle registers handler for pattern, which may carry a leading method
// ("GET /jobs") the same way Go 1.22 ServeMux patterns do. A pattern with
// no method defaults to GET.
func (r *Router) Handle(pattern string, handler http.Handler) {
	method, path := splitPattern(pattern)
	r.Router.Handler(method, path, handler)
}

func (r *Router) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	r.Handle(pattern, http.HandlerFunc(handler))
}

func (r *Router) Param(req *http.Request, key string) string {
	params := jshttprouter.ParamsFromContext(req.Context())
	return params.ByName(key)
}

func (r *Router) Register(routes ...*router.Route) {
	for _, rt := range routes {
		r.Handle(rt.Pattern(), rt.Handler())
	}
}

func splitPattern(pattern string) (method, path string) {
	if method, path, found := strings.Cut(pattern, " "); found {
		return method, path
	}
	return http.MethodGet, pattern
}

// jsParams adapts httprouter's context-stored params to router.Params.
type jsParams struct{}

func (js *jsParams) Get(ctx context.Context) router.Params {
	pms, _ := ctx.Value(jshttprouter.ParamsKey).(jshttprouter.Params)

	var params router.Params

	for _, v := range pms {
		p := router.Param{Key: v.Key, Value: v.Value}
		params = append(params, p)
	}

	return params
}

func NewParamGeter() router.ParamGeter {
	return &jsParams{}
}
