package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/caasmo/restinpieces/db"
)

// jobFromToken resolves the job named by the capability token on r's
// context, checking the job exists and the token's user_id still matches
// its owner. It writes the appropriate error response itself on failure.
func (a *App) jobFromToken(w http.ResponseWriter, r *http.Request) (*db.Job, bool) {
	jobID, _ := r.Context().Value(JobIDKey).(string)
	tokenUserID, _ := r.Context().Value(JobUserIDKey).(string)

	job, err := a.Db().GetJob(jobID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			WriteJsonError(w, errorNotFound)
		} else {
			WriteJsonError(w, errorInternal)
		}
		return nil, false
	}
	if job.UserID != tokenUserID {
		WriteJsonError(w, errorPermissionDenied)
		return nil, false
	}
	return job, true
}

func payloadHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// SubmitResultsHandler appends each submitted result as a ResultRow,
// updating job counters, and marks the job completed when the caller
// signals is_complete (spec.md §4.4's submit operation).
// Endpoint: POST /api/results/submit
// Authenticated: job capability token
func (a *App) SubmitResultsHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := a.jobFromToken(w, r)
	if !ok {
		return
	}
	if job.Status.Terminal() || job.Status == db.JobPaused {
		WriteJsonError(w, errorInvalidJobState)
		return
	}

	var req struct {
		Results []struct {
			URLID   string          `json:"url_id"`
			Payload json.RawMessage `json:"payload"`
		} `json:"results"`
		Metadata struct {
			IsComplete bool `json:"is_complete"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}
	if req.Results == nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	now := time.Now()
	for _, item := range req.Results {
		hash := payloadHash(item.Payload)
		if item.URLID != "" {
			if _, err := a.Db().CompleteURL(item.URLID, item.Payload, hash, now); err != nil {
				a.Logger().Error("results: complete_url failed", "job_id", job.ID, "url_id", item.URLID, "error", err)
			}
			continue
		}
		if _, err := a.Db().InsertResultRow(job.ID, "", item.Payload, hash, now); err != nil {
			a.Logger().Error("results: insert result row failed", "job_id", job.ID, "error", err)
		}
	}

	if req.Metadata.IsComplete {
		if _, err := a.Db().TransitionJob(job.ID, []db.JobStatus{db.JobRunning}, db.JobCompleted, now); err != nil {
			a.Logger().Error("results: failed to mark job completed", "job_id", job.ID, "error", err)
		}
	}

	WriteJsonOk(w, PrecomputeBasicResponse(http.StatusOK, "ok_results_submitted", "Results recorded"))
}

// ResultsUploadHandler accepts a multipart file upload (spec.md §6.1
// POST /results/upload), enforcing the configured per-file size cap and
// file-count cap, and records each file's metadata in the Job Store.
// Endpoint: POST /api/results/upload
// Authenticated: job capability token
func (a *App) ResultsUploadHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := a.jobFromToken(w, r)
	if !ok {
		return
	}
	if job.Status.Terminal() {
		WriteJsonError(w, errorInvalidJobState)
		return
	}

	cfg := a.Config().Results
	maxTotal := cfg.MaxFileSize * int64(max(cfg.MaxFilesPerUpload, 1))
	r.Body = http.MaxBytesReader(w, r.Body, maxTotal)

	if err := r.ParseMultipartForm(cfg.MaxFileSize); err != nil {
		WriteJsonError(w, errorPayloadTooLarge)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteJsonError(w, errorInvalidRequest)
		return
	}
	if len(files) > cfg.MaxFilesPerUpload {
		WriteJsonError(w, errorPayloadTooLarge)
		return
	}

	jobDir := filepath.Join(cfg.UploadDir, job.ID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		a.Logger().Error("results: failed to create upload dir", "job_id", job.ID, "error", err)
		WriteJsonError(w, errorInternal)
		return
	}

	now := time.Now()
	for _, fh := range files {
		if fh.Size > cfg.MaxFileSize {
			WriteJsonError(w, errorPayloadTooLarge)
			return
		}

		src, err := fh.Open()
		if err != nil {
			WriteJsonError(w, errorInvalidRequest)
			return
		}

		storedName := uuid.NewString() + filepath.Ext(fh.Filename)
		storedPath := filepath.Join(jobDir, storedName)
		dst, err := os.Create(storedPath)
		if err != nil {
			src.Close()
			a.Logger().Error("results: failed to create upload file", "job_id", job.ID, "error", err)
			WriteJsonError(w, errorInternal)
			return
		}

		_, copyErr := io.Copy(dst, src)
		src.Close()
		dst.Close()
		if copyErr != nil {
			a.Logger().Error("results: failed to write upload file", "job_id", job.ID, "error", copyErr)
			WriteJsonError(w, errorInternal)
			return
		}

		if err := a.Db().InsertResultFile(db.ResultFile{
			ID:           uuid.NewString(),
			JobID:        job.ID,
			OriginalName: fh.Filename,
			StoredPath:   storedPath,
			Size:         fh.Size,
			ContentType:  fh.Header.Get("Content-Type"),
			UploadedAt:   now,
		}); err != nil {
			a.Logger().Error("results: failed to record uploaded file", "job_id", job.ID, "error", err)
			WriteJsonError(w, errorInternal)
			return
		}
	}

	WriteJsonOk(w, PrecomputeBasicResponse(http.StatusOK, "ok_results_uploaded", "Files uploaded"))
}

// ResultsProgressHandler records a worker's progress report against a job.
// Endpoint: POST /api/results/progress
// Authenticated: job capability token
func (a *App) ResultsProgressHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := a.jobFromToken(w, r)
	if !ok {
		return
	}
	if job.Status.Terminal() {
		WriteJsonError(w, errorInvalidJobState)
		return
	}

	var req struct {
		Progress   int    `json:"progress"`
		Message    string `json:"message"`
		CurrentURL string `json:"current_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}
	if req.Progress < 0 || req.Progress > 100 {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	if err := a.Db().SetJobProgress(job.ID, req.Progress, req.Message, req.CurrentURL, time.Now()); err != nil {
		WriteJsonError(w, errorInternal)
		return
	}
	WriteJsonOk(w, PrecomputeBasicResponse(http.StatusOK, "ok_progress_recorded", "Progress recorded"))
}

// ResultsErrorHandler records a worker-reported error, transitioning the
// job to failed when is_fatal is set.
// Endpoint: POST /api/results/error
// Authenticated: job capability token
func (a *App) ResultsErrorHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := a.jobFromToken(w, r)
	if !ok {
		return
	}
	if job.Status.Terminal() {
		WriteJsonError(w, errorInvalidJobState)
		return
	}

	var req struct {
		ErrorMessage string `json:"error_message"`
		ErrorCode    string `json:"error_code"`
		IsFatal      bool   `json:"is_fatal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}
	if req.ErrorMessage == "" {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	now := time.Now()
	if err := a.Db().SetJobError(job.ID, req.ErrorMessage, req.IsFatal, now); err != nil {
		WriteJsonError(w, errorInternal)
		return
	}
	if req.IsFatal {
		if _, err := a.Db().TransitionJob(job.ID, []db.JobStatus{db.JobRunning}, db.JobFailed, now); err != nil {
			a.Logger().Error("results: failed to fail job after fatal error", "job_id", job.ID, "error", err)
		}
	}

	WriteJsonOk(w, PrecomputeBasicResponse(http.StatusOK, "ok_error_recorded", "Error recorded"))
}

// GetResultsHandler returns the accumulated result rows and uploaded file
// metadata for a job the caller's capability token names.
// Endpoint: GET /api/results/{job_id}
// Authenticated: job capability token
func (a *App) GetResultsHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := a.jobFromToken(w, r)
	if !ok {
		return
	}

	rows, files, err := a.Db().GetResults(job.ID)
	if err != nil {
		WriteJsonError(w, errorInternal)
		return
	}

	writeJsonWithData(w, *NewJsonWithData(http.StatusOK, "ok_results", "", struct {
		Results []*db.ResultRow  `json:"results"`
		Files   []*db.ResultFile `json:"files"`
	}{Results: rows, Files: files}))
}
