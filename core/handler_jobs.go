package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/caasmo/restinpieces/admission"
	"github.com/caasmo/restinpieces/db"
)

// jobErrorResponse maps an error returned by the admission/job-store layer
// to the wire error kind of spec.md §7.
func jobErrorResponse(err error) jsonResponse {
	switch {
	case errors.Is(err, db.ErrInvalidArgument):
		return errorInvalidRequest
	case errors.Is(err, db.ErrInsufficientCredits):
		return errorInsufficientCredits
	case errors.Is(err, db.ErrConcurrentLimitExceeded):
		return errorConcurrentLimitExceeded
	case errors.Is(err, db.ErrNoEligibleAccounts):
		return errorNoEligibleAccounts
	case errors.Is(err, db.ErrInvalidJobState):
		return errorInvalidJobState
	case errors.Is(err, db.ErrNotFound):
		return errorNotFound
	default:
		return errorInternal
	}
}

// SubmitJobHandler creates a job: validates the request, intersects
// requested accounts with eligibility, debits credits and inserts the job
// and its URL rows atomically, then enqueues one work item per URL
// (spec.md §4.5, §6.1 POST /jobs).
// Endpoint: POST /api/jobs
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) SubmitJobHandler(w http.ResponseWriter, r *http.Request) {
	if a.Admission() == nil {
		WriteJsonError(w, errorServiceUnavailable)
		return
	}
	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		WriteJsonError(w, resp)
		return
	}

	userID, _ := r.Context().Value(UserIDKey).(string)

	var req struct {
		Type                 db.JobType `json:"type"`
		Name                 string     `json:"name"`
		URLs                 []string   `json:"urls"`
		MaxResults           int        `json:"max_results"`
		SelectedAccountIDs   []string   `json:"selected_account_ids"`
		AccountSelectionMode string     `json:"account_selection_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	result, err := a.Admission().SubmitJob(admission.SubmitRequest{
		UserID:               userID,
		Type:                 req.Type,
		Name:                 req.Name,
		URLs:                 req.URLs,
		MaxResults:           req.MaxResults,
		SelectedAccountIDs:   req.SelectedAccountIDs,
		AccountSelectionMode: req.AccountSelectionMode,
	}, time.Now())
	if err != nil {
		WriteJsonError(w, jobErrorResponse(err))
		return
	}

	writeJsonWithData(w, *NewJsonWithData(http.StatusOK, "ok_job_submitted", "Job submitted", result.Job))
}

// loadOwnedJob fetches the job identified by the {id} path parameter and
// checks it belongs to the authenticated caller. It writes the appropriate
// error response itself when the lookup fails.
func (a *App) loadOwnedJob(w http.ResponseWriter, r *http.Request) (*db.Job, bool) {
	jobID := a.Router().Param(r, "id")
	userID, _ := r.Context().Value(UserIDKey).(string)

	job, err := a.Db().GetJob(jobID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			WriteJsonError(w, errorNotFound)
		} else {
			WriteJsonError(w, errorInternal)
		}
		return nil, false
	}
	if job.UserID != userID {
		WriteJsonError(w, errorPermissionDenied)
		return nil, false
	}
	return job, true
}

// GetJobHandler returns the current view of a job the caller owns.
// Endpoint: GET /api/jobs/{id}
// Authenticated: Yes
func (a *App) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadOwnedJob(w, r)
	if !ok {
		return
	}
	writeJsonWithData(w, *NewJsonWithData(http.StatusOK, "ok_job", "", job))
}

// PauseJobHandler pauses a running or pending job.
// Endpoint: POST /api/jobs/{id}/pause
// Authenticated: Yes
func (a *App) PauseJobHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadOwnedJob(w, r)
	if !ok {
		return
	}
	if err := a.Db().PauseJob(job.ID, time.Now()); err != nil {
		WriteJsonError(w, jobErrorResponse(err))
		return
	}
	WriteJsonOk(w, PrecomputeBasicResponse(http.StatusOK, "ok_job_paused", "Job paused"))
}

// ResumeJobHandler resumes a paused job.
// Endpoint: POST /api/jobs/{id}/resume
// Authenticated: Yes
func (a *App) ResumeJobHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadOwnedJob(w, r)
	if !ok {
		return
	}
	if err := a.Db().ResumeJob(job.ID, time.Now()); err != nil {
		WriteJsonError(w, jobErrorResponse(err))
		return
	}
	WriteJsonOk(w, PrecomputeBasicResponse(http.StatusOK, "ok_job_resumed", "Job resumed"))
}

// CancelJobHandler cancels a job immediately; in-flight URL leases are not
// forcibly revoked, they drain lazily (spec.md §5).
// Endpoint: POST /api/jobs/{id}/cancel
// Authenticated: Yes
func (a *App) CancelJobHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadOwnedJob(w, r)
	if !ok {
		return
	}
	if err := a.Db().CancelJob(job.ID, time.Now()); err != nil {
		WriteJsonError(w, jobErrorResponse(err))
		return
	}
	WriteJsonOk(w, PrecomputeBasicResponse(http.StatusOK, "ok_job_cancelled", "Job cancelled"))
}

// DeleteJobHandler deletes a terminal job's record. A terminal job accepts
// no mutations except this delete from its owner (spec.md §4.8).
// Endpoint: DELETE /api/jobs/{id}
// Authenticated: Yes
func (a *App) DeleteJobHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadOwnedJob(w, r)
	if !ok {
		return
	}
	if !job.Status.Terminal() {
		WriteJsonError(w, errorInvalidJobState)
		return
	}
	if err := a.Db().DeleteJob(job.ID); err != nil {
		WriteJsonError(w, jobErrorResponse(err))
		return
	}
	WriteJsonOk(w, PrecomputeBasicResponse(http.StatusOK, "ok_job_deleted", "Job deleted"))
}
