package db

import "time"

// User represents a user from the database.
// Timestamps (Created and Updated) use RFC3339 format in UTC timezone.
// Example: "2024-03-07T15:04:05Z"
type User struct {
	ID    string
	Email string
	Name  string
	// Non empty password means password authentication is active
	// Password can be empty for passwordless methods like oauth2, otp over email...
	Password string
	Avatar   string
	Created  time.Time
	Updated  time.Time
	Verified bool
	//deprecated
	// ExternalAuth identifies authentication methods (password authentication excluded)
	// Example of methods are "oauth2", "otp".
	// the structure is a comma separated string
	// in future a colon separated string (not implmented) could be used for mfa
	//
	// The only reason for this field is the use case of a user having password and oauth2 login with the same email,
	// if the user request a change of email, and after that tries to  log with the
	// the old email a new user is created which may surprise the user.
	// having this field, we now it has two auth methods and we can remember the user before changing email.
	//ExternalAuth    string
	Oauth2          bool
	EmailVisibility bool

	// CreditsBalance is the number of execution credits the user can still spend.
	// Debited atomically with job admission (see SubmitJob).
	CreditsBalance int64
	// CreditsUsed is monotonically non-decreasing, incremented by the same
	// amount CreditsBalance is decremented by.
	CreditsUsed int64
	// MaxConcurrentJobs caps how many jobs this user may have in
	// {pending, running, paused} simultaneously.
	MaxConcurrentJobs int
	// MaxMonthlyJobs caps total job submissions per calendar month.
	MaxMonthlyJobs int
}

// AccountStatus is the scraping-identity state machine of spec.md §3.
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountPending  AccountStatus = "PENDING"
	AccountFailed   AccountStatus = "FAILED"
	AccountBlocked  AccountStatus = "BLOCKED"
	AccountDisabled AccountStatus = "DISABLED"
)

// AccountOutcome is the result a caller reports back to the Account
// Registry after attempting work with an account (spec.md §4.3).
type AccountOutcome string

const (
	OutcomeSuccess          AccountOutcome = "success"
	OutcomeTransientFailure AccountOutcome = "transient_failure"
	OutcomeHardFailure      AccountOutcome = "hard_failure"
)

// Account is a scraping identity: session material plus per-day quota and
// cooldown/block bookkeeping. Timestamps are the zero value when unset.
type Account struct {
	ID                  string
	UserID              string
	SessionMaterial     string
	Status              AccountStatus
	DailyRequestLimit   int
	RequestsToday       int
	LastRequestAt       time.Time
	CooldownUntil       time.Time
	BlockedUntil        time.Time
	ConsecutiveFailures int
	// Version supports optimistic-concurrency callers; ReserveAccountRequest
	// itself uses a conditional UPDATE and does not require the caller to pass it.
	Version int
	Created time.Time
	Updated time.Time
}

// Eligible implements the predicate of spec.md §3: an account may serve
// work iff it is ACTIVE or PENDING, past both its cooldown and block
// deadlines, and has quota left today.
func (a *Account) Eligible(now time.Time) bool {
	if a.Status != AccountActive && a.Status != AccountPending {
		return false
	}
	if a.CooldownUntil.After(now) {
		return false
	}
	if a.BlockedUntil.After(now) {
		return false
	}
	return a.RequestsToday < a.DailyRequestLimit
}

// JobType enumerates the kinds of scraping job the system admits.
type JobType string

const (
	JobTypeProfile JobType = "profile"
	JobTypeCompany JobType = "company"
	JobTypeSearch  JobType = "search"
)

// JobStatus is the job lifecycle state machine of spec.md §4.8.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobPaused    JobStatus = "paused"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether a job status accepts no further mutation
// except delete-by-owner.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// JobConfiguration is the immutable configuration blob attached to a job
// at admission. It is stored as the `configuration` TEXT column (JSON).
type JobConfiguration struct {
	SelectedAccountIDs  []string `json:"selected_account_ids,omitempty"`
	AccountSelectionMode string  `json:"account_selection_mode,omitempty"` // "rotation" or "" (head)
}

// Job is a scraping job: owning user, type, status machine, URL/result counters.
type Job struct {
	ID             string
	UserID         string
	Type           JobType
	Status         JobStatus
	MaxResults     int
	Configuration  JobConfiguration
	TotalURLs      int
	ProcessedURLs  int
	SuccessfulURLs int
	FailedURLs     int
	ResultCount    int
	ErrorMessage   string
	CreatedAt      time.Time
	StartedAt      time.Time
	CompletedAt    time.Time
	PausedAt       time.Time
	ResumedAt      time.Time
	UpdatedAt      time.Time
}

// UrlWorkItemStatus is the per-URL lifecycle of spec.md §3.
type UrlWorkItemStatus string

const (
	UrlPending   UrlWorkItemStatus = "pending"
	UrlInFlight  UrlWorkItemStatus = "in_flight"
	UrlCompleted UrlWorkItemStatus = "completed"
	UrlFailed    UrlWorkItemStatus = "failed"
	UrlCancelled UrlWorkItemStatus = "cancelled"
)

// UrlWorkItem is a single URL inside a job: the unit of queueing, leasing
// and completion.
type UrlWorkItem struct {
	ID          string
	JobID       string
	URL         string
	Status      UrlWorkItemStatus
	Attempts    int
	LastError   string
	LeasedUntil time.Time
	LeasedBy    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ResultRow is one structured result belonging to a job (and, for
// URL-scoped jobs, a specific UrlWorkItem). PayloadHash is the dedupe key
// the Result Ingestor uses together with URLID to make completion idempotent.
type ResultRow struct {
	ID          string
	JobID       string
	URLID       string // empty when not tied to a specific URL
	Payload     []byte // JSON, shape depends on job type (tagged variant)
	PayloadHash string
	CreatedAt   time.Time
}

// ResultFile is metadata for a result file uploaded out-of-band; bytes
// live on disk/object storage, this row only tracks where.
type ResultFile struct {
	ID           string
	JobID        string
	OriginalName string
	StoredPath   string
	Size         int64
	ContentType  string
	UploadedAt   time.Time
}

// SubmitJobParams carries everything the Admission Controller (C5) needs
// to run the atomic portion of job submission (spec.md §4.5 steps 2-8).
type SubmitJobParams struct {
	UserID              string
	Type                JobType
	MaxResults          int
	URLs                []string // already de-duplicated by the caller
	SelectedAccountIDs  []string
	AccountSelectionMode string
	Now                 time.Time
}

// SubmitJobResult is the outcome of a successful SubmitJob call.
type SubmitJobResult struct {
	Job            *Job
	URLItems       []*UrlWorkItem
	CreditsNeeded  int64
	CreditsBalance int64
}

// WorkItemStatus is the lifecycle of a row in the job_queue table (C6).
type WorkItemStatus string

const (
	WorkItemPending    WorkItemStatus = "pending"
	WorkItemReserved   WorkItemStatus = "reserved"
	WorkItemDone       WorkItemStatus = "done"
	WorkItemDeadLetter WorkItemStatus = "dead"
)

// Priority levels, per spec.md §4.6.
const (
	PriorityLow    = 1
	PriorityNormal = 5
	PriorityHigh   = 10
	PriorityUrgent = 20
)

// DefaultPriority returns the job-type default queue priority.
func DefaultPriority(t JobType) int {
	switch t {
	case JobTypeSearch:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// WorkItem is one row of the priority FIFO queue: a (job_id, url_id) pair
// awaiting dispatch, with delayed visibility and an attempt counter.
type WorkItem struct {
	ID          int64
	JobID       string
	URLID       string
	Priority    int
	Status      WorkItemStatus
	Attempts    int
	MaxAttempts int
	VisibleAt   time.Time
	ReservedBy  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DbApp is an interface combining the required DB roles for the application.
// The concrete DB implementation (e.g., *crawshaw.Db or *zombiezen.Db) must satisfy this interface.

// AcmeCert represents an ACME certificate record from the database.
// Timestamps use RFC3339 format in UTC timezone.
type AcmeCert struct {
	ID                   int64     // Primary Key
	Identifier           string    // Unique identifier (e.g., primary domain)
	Domains              string    // JSON array of domains
	CertificateChain     string    // PEM encoded certificate chain
	PrivateKey           string    // PEM encoded private key
	IssuedAt             time.Time // UTC timestamp
	ExpiresAt            time.Time // UTC timestamp
	LastRenewalAttemptAt time.Time // UTC timestamp (zero time if null/not set)
	CreatedAt            time.Time // UTC timestamp
	UpdatedAt            time.Time // UTC timestamp
}
