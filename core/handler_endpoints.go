package core

import (
	"encoding/json"
	"net/http"

	"github.com/caasmo/restinpieces/config"
)

// EndpointsData is the public, JSON-tag-driven view of config.Endpoints
// returned by ListEndpointsHandler, letting clients discover the configured
// paths instead of hard-coding them.
type EndpointsData map[string]string

// NewEndpointsData flattens a config.Endpoints struct into a name->path map
// using the struct's own json tags, so adding a field here never requires
// touching this function.
func NewEndpointsData(e *config.Endpoints) EndpointsData {
	data := EndpointsData{}
	raw, err := json.Marshal(e)
	if err != nil {
		return data
	}
	_ = json.Unmarshal(raw, &data)
	return data
}

// ListEndpointsHandler reports the configured path for every API endpoint,
// letting clients discover routes instead of hard-coding them.
// Endpoint: GET /list-endpoints
// Authenticated: No
func (a *App) ListEndpointsHandler(w http.ResponseWriter, r *http.Request) {
	endpoints := NewEndpointsData(&a.Config().Endpoints)
	response := NewJsonWithData(
		http.StatusOK,
		"ok_endpoints_list",
		"List of available endpoints",
		endpoints,
	)
	writeJsonWithData(w, *response)
}
