package db

import (
	"time"

	"github.com/caasmo/restinpieces/queue"
)

// Db is the storage interface consumed by every component of the core
// (Account Registry, Job Store, Admission Controller, Dispatcher, Result
// Ingestor, Reconciler). A single flat interface, following the shape the
// teacher already used for users/queue — concrete drivers live in
// db/zombiezen and db/crawshaw.
type Db interface {
	Close()

	// --- users & credits ---

	GetUserByID(id string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	CreateUser(user User) (*User, error)

	// SubmitJob performs the entire atomic portion of job admission
	// (spec.md §4.5 steps 2-8) inside a single transaction: concurrency
	// check, credit debit, job + URL work item insert, account assignment
	// insert. It never enqueues — that is a post-commit step owned by the
	// Admission Controller.
	SubmitJob(p SubmitJobParams) (*SubmitJobResult, error)

	CountActiveJobsByUser(userID string) (int, error)

	// --- account registry (C3) ---

	ListAccountsByUser(userID string) ([]*Account, error)
	ListEligibleAccounts(userID string, restrictToIDs []string, now time.Time) ([]*Account, error)
	GetAccount(accountID string) (*Account, error)

	// ReserveAccountRequest atomically re-checks eligibility and bumps
	// requests_today/last_request_at. ok=false means the predicate no
	// longer held (db.ErrAccountBusy semantics surfaced via the bool).
	ReserveAccountRequest(accountID string, now time.Time) (ok bool, err error)

	// ReportAccountOutcome applies the success/transient/hard-failure state
	// transition of spec.md §4.3. blockDuration is only used for hard_failure.
	ReportAccountOutcome(accountID string, outcome AccountOutcome, now time.Time, blockDuration time.Duration) error

	ResetDailyCounters(now time.Time) (int, error)
	UnblockAccounts(now time.Time) (int, error)

	// --- job store (C4) ---

	GetJob(jobID string) (*Job, error)
	ListJobsByUser(userID string, limit, offset int) ([]*Job, error)

	// TransitionJob is a conditional UPDATE gated on the current status,
	// making the transition idempotent under redelivery (spec.md §5).
	TransitionJob(jobID string, from []JobStatus, to JobStatus, now time.Time) (bool, error)

	LeaseNextURL(jobID, accountID string, leaseDuration time.Duration, now time.Time) (*UrlWorkItem, error)

	// CompleteURL appends a ResultRow keyed on (urlID, payloadHash),
	// incrementing result_count/successful_urls/processed_urls only on the
	// first occurrence (subsequent identical submissions are no-ops: the
	// idempotence property of spec.md §8).
	CompleteURL(urlID string, payload []byte, payloadHash string, now time.Time) (deduped bool, err error)

	// FailURL requeues (attempts < maxAttempts && retriable) or dead-letters.
	FailURL(urlID, errMsg string, retriable bool, maxAttempts int, now time.Time) (requeued bool, err error)

	ExpireLeases(now time.Time) ([]*UrlWorkItem, error)

	InsertResultRow(jobID string, urlID string, payload []byte, payloadHash string, now time.Time) (deduped bool, err error)
	InsertResultFile(f ResultFile) error
	GetResults(jobID string) ([]*ResultRow, []*ResultFile, error)

	SetJobProgress(jobID string, percent int, message, currentURL string, now time.Time) error
	SetJobError(jobID, errMsg string, fatal bool, now time.Time) error
	CancelJob(jobID string, now time.Time) error
	PauseJob(jobID string, now time.Time) error
	ResumeJob(jobID string, now time.Time) error
	DeleteJob(jobID string) error

	// --- restart-stalled-jobs sweep (C9) ---

	ListStalledJobs(staleSince time.Time) ([]*Job, error)

	// --- queue (C6): job_queue table, one row per URL work item ---

	EnqueueWorkItem(item WorkItem) error
	ReserveWorkItem(workerID string, now time.Time, leaseDuration time.Duration) (*WorkItem, error)
	AckWorkItem(id int64) error
	NackWorkItem(id int64, requeueDelay time.Duration, now time.Time) error
	ExtendWorkItemLease(id int64, duration time.Duration, now time.Time) error
	ExpireWorkItemLeases(now time.Time) ([]*WorkItem, error)

	// --- notify jobs: background side-effects of registry state changes,
	// e.g. the account-blocked email (spec.md §4.3 hard-failure transition) ---

	// InsertNotifyJob enqueues a side-effect job. The (job_type, payload)
	// pair is only unique among pending rows, so a resend after the prior
	// job finished processing is allowed.
	InsertNotifyJob(jobType string, payload []byte, now time.Time) error
	ClaimNotifyJobs(limit int, now time.Time) ([]*queue.Job, error)
	MarkNotifyJobCompleted(id int64, now time.Time) error
	MarkNotifyJobFailed(id int64, errMsg string, now time.Time) error
}
