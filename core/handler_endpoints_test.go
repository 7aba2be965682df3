package core

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/caasmo/restinpieces/config"
)

func TestListEndpointsHandler(t *testing.T) {
	testCases := []struct {
		name      string
		endpoints config.Endpoints
	}{
		{
			name: "happy path with endpoints",
			endpoints: config.Endpoints{
				ListEndpoints:    "GET /api/list-endpoints",
				AuthWithPassword: "POST /api/auth-with-password",
				SubmitJob:        "POST /api/jobs",
				GetJob:           "GET /api/jobs/{id}",
				PauseJob:         "POST /api/jobs/{id}/pause",
				ResumeJob:        "POST /api/jobs/{id}/resume",
				CancelJob:        "POST /api/jobs/{id}/cancel",
				DeleteJob:        "DELETE /api/jobs/{id}",
				ResultsSubmit:    "POST /api/results/submit",
				ResultsUpload:    "POST /api/results/upload",
				ResultsProgress:  "POST /api/results/progress",
				ResultsError:     "POST /api/results/error",
				GetResults:       "GET /api/results/{job_id}",
			},
		},
		{
			name:      "edge case with no endpoints",
			endpoints: config.Endpoints{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := &App{}
			app.SetConfig(&config.Config{Endpoints: tc.endpoints})

			req, err := http.NewRequest("GET", "/endpoints", nil)
			if err != nil {
				t.Fatalf("could not create request: %v", err)
			}
			rr := httptest.NewRecorder()

			handler := http.HandlerFunc(app.ListEndpointsHandler)
			handler.ServeHTTP(rr, req)

			if status := rr.Code; status != http.StatusOK {
				t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
			}

			var actualBody JsonWithData
			if err := json.Unmarshal(rr.Body.Bytes(), &actualBody); err != nil {
				t.Fatalf("could not unmarshal response body: %v", err)
			}

			if actualBody.Status != http.StatusOK || actualBody.Code != "ok_endpoints_list" {
				t.Errorf("handler returned unexpected body fields: got %+v", actualBody.JsonBasic)
			}

			var actualEndpoints config.Endpoints
			dataBytes, err := json.Marshal(actualBody.Data)
			if err != nil {
				t.Fatalf("could not marshal actual data: %v", err)
			}
			if err := json.Unmarshal(dataBytes, &actualEndpoints); err != nil {
				t.Fatalf("could not unmarshal data into Endpoints struct: %v", err)
			}

			if !reflect.DeepEqual(actualEndpoints, tc.endpoints) {
				t.Errorf("handler returned unexpected data:\ngot:  %+v\nwant: %+v", actualEndpoints, tc.endpoints)
			}
		})
	}
}
