package db

import "errors"

// Sentinel errors returned by Db implementations. Callers (core handlers,
// admission, dispatcher) translate these into the wire error kinds of
// spec.md §7 via core's error-mapping layer.
var (
	// ErrNotFound is returned when a row looked up by primary key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConstraintUnique is returned when an insert violates a unique index,
	// e.g. a duplicate result row for (url_id, payload_hash).
	ErrConstraintUnique = errors.New("unique constraint violation")

	// ErrMissingFields is returned by validate* helpers when required fields are empty.
	ErrMissingFields = errors.New("missing required fields")

	// ErrInsufficientCredits is returned by SubmitJob when the user's
	// credits_balance is lower than the computed credits_needed.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrConcurrentLimitExceeded is returned by SubmitJob when the user already
	// has max_concurrent_jobs active jobs.
	ErrConcurrentLimitExceeded = errors.New("concurrent job limit exceeded")

	// ErrNoEligibleAccounts is returned by SubmitJob when configuration names
	// specific accounts and none of them are eligible for the user.
	ErrNoEligibleAccounts = errors.New("no eligible accounts")

	// ErrInvalidJobState is returned when an operation is attempted against a
	// job whose current status does not allow it (e.g. submit on a terminal job).
	ErrInvalidJobState = errors.New("invalid job state")

	// ErrAccountBusy is returned by ReserveAccountRequest when the eligibility
	// predicate no longer holds at the moment of the conditional update
	// (another dispatcher already consumed the last quota slot).
	ErrAccountBusy = errors.New("account busy")

	// ErrInvalidArgument flags request-validation failures surfaced as 400s.
	ErrInvalidArgument = errors.New("invalid argument")
)
