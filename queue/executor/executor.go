package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/caasmo/restinpieces/mail"
	"github.com/caasmo/restinpieces/queue"
)

// JobExecutor defines the interface for executing jobs
type JobExecutor interface {
	Execute(ctx context.Context, job queue.Job) error
}

// DefaultExecutor is our concrete implementation of JobExecutor
type DefaultExecutor struct {
	registry map[string]JobHandler // Maps job types to handlers
}

// JobHandler processes a specific type of job
type JobHandler interface {
	Handle(ctx context.Context, job queue.Job) error
}

// NewExecutor creates an executor with the given handlers
func NewExecutor(handlers map[string]JobHandler) *DefaultExecutor {
	return &DefaultExecutor{
		registry: handlers,
	}
}

// Execute implements the JobExecutor interface
func (e *DefaultExecutor) Execute(ctx context.Context, job queue.Job) error {
	handler, exists := e.registry[job.JobType]
	if !exists {
		return fmt.Errorf("no handler registered for job type: %s", job.JobType)
	}

	slog.Info("Executing job",
		"job_id", job.ID,
		"job_type", job.JobType,
		"attempt", job.Attempts,
	)

	return handler.Handle(ctx, job)
}

// AccountBlockedHandler notifies a user by email when one of their accounts
// is transitioned to the blocked state (spec.md §4.3).
type AccountBlockedHandler struct {
	mailer *mail.Mailer
}

// NewAccountBlockedHandler creates a new handler for account-blocked jobs.
func NewAccountBlockedHandler(mailer *mail.Mailer) *AccountBlockedHandler {
	return &AccountBlockedHandler{
		mailer: mailer,
	}
}

// Handle implements JobHandler for account-blocked notifications.
func (h *AccountBlockedHandler) Handle(ctx context.Context, job queue.Job) error {
	var payload queue.PayloadAccountBlocked
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse account blocked payload: %w", err)
	}

	return h.mailer.SendAccountBlockedNotification(ctx, payload.Email, payload.AccountID, payload.Reason)
}
