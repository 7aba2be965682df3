package queue

import (
	"encoding/json"
	"time"
)

// Job represents a row in the notify_jobs table: a background side-effect
// triggered by a state transition elsewhere in the system (currently, only
// the account registry's hard-failure transition). It is deliberately kept
// separate from the C6 job_queue table, which carries URL work items.
type Job struct {
	ID           int64           `json:"id"`
	JobType      string          `json:"job_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       string          `json:"status"`
	Attempts     int             `json:"attempts"`
	MaxAttempts  int             `json:"max_attempts"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ScheduledFor time.Time       `json:"scheduled_for"`
	LockedBy     string          `json:"-"` // deprecated, marked as ignored in JSON
	LockedAt     time.Time       `json:"locked_at,omitempty"`
	CompletedAt  time.Time       `json:"completed_at,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
}

// PayloadAccountBlocked carries the details of an account that the registry
// has just transitioned to FAILED (spec.md §4.3), so the notification
// handler can tell the owning user without looking anything else up.
type PayloadAccountBlocked struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Reason    string `json:"reason"`
	// Bucket is the CoolDownBucket the event fell into, so repeated hard
	// failures for the same account within one window collapse to a single
	// pending notify_jobs row via the (job_type, payload) uniqueness
	// constraint, while a later window gets a fresh notification.
	Bucket int `json:"bucket"`
}

// Job types
const (
	JobTypeAccountBlocked = "job_type_account_blocked"
)

// Job statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// CoolDownBucket calculates which time bucket the current time falls into based on the duration period.
// It returns an integer representing the number of complete duration periods since the Unix epoch (January 1, 1970 UTC).
//
// This is used to rate-limit repeat notifications for the same account: two
// blocked-account events for the same account within the same bucket collapse
// to one notify_jobs row via the (job_type, payload) uniqueness constraint.
//
// Parameters:
// - duration: The fixed time window size to bucket time into (e.g. time.Hour, 5*time.Minute)
// - t: The time to calculate the bucket for
//
// Panics if duration is zero or negative.
func CoolDownBucket(duration time.Duration, t time.Time) int {
	if duration <= 0 {
		panic("duration must be positive")
	}

	return int(t.Unix() / int64(duration.Seconds()))
}
