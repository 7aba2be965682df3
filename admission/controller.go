// Package admission implements the Admission Controller (spec.md §4.5):
// job submission validation, the atomic credits/queue-insert transaction,
// and the post-commit enqueue step.
package admission

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caasmo/restinpieces/account"
	"github.com/caasmo/restinpieces/db"
)

// defaultMaxAttempts bounds FailURL's requeue-vs-dead-letter decision for
// URLs created by this controller; spec.md leaves the value unspecified.
const defaultMaxAttempts = 5

// allowedHostSuffixes is the LinkedIn host family domain allow-list of
// spec.md §4.5 step 1.
var allowedHostSuffixes = []string{
	"linkedin.com",
	"www.linkedin.com",
}

// Controller implements submit_job over db.Db's atomic primitive and the
// account registry's eligibility check.
type Controller struct {
	db       db.Db
	accounts *account.Registry
}

// New builds a Controller.
func New(d db.Db, accounts *account.Registry) *Controller {
	return &Controller{db: d, accounts: accounts}
}

// SubmitRequest is the caller-facing view of POST /jobs.
type SubmitRequest struct {
	UserID               string
	Type                 db.JobType
	Name                 string
	URLs                 []string
	MaxResults           int
	SelectedAccountIDs   []string
	AccountSelectionMode string
}

func validType(t db.JobType) bool {
	switch t {
	case db.JobTypeProfile, db.JobTypeCompany, db.JobTypeSearch:
		return true
	}
	return false
}

func allowedHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, suffix := range allowedHostSuffixes {
		if host == suffix {
			return true
		}
	}
	return false
}

func dedupeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// validate implements step 1 of spec.md §4.5.
func validate(req SubmitRequest, urls []string) error {
	if !validType(req.Type) {
		return fmt.Errorf("%w: invalid job type %q", db.ErrInvalidArgument, req.Type)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: job name is required", db.ErrInvalidArgument)
	}
	if len(urls) == 0 {
		return fmt.Errorf("%w: at least one URL is required", db.ErrInvalidArgument)
	}
	for _, u := range urls {
		if !allowedHost(u) {
			return fmt.Errorf("%w: url %q is not in the allowed domain list", db.ErrInvalidArgument, u)
		}
	}
	return nil
}

// SubmitJob runs the nine-step contract of spec.md §4.5: validate,
// intersect requested accounts with eligibility, run the atomic portion
// via db.Db.SubmitJob, then enqueue one work item per URL.
func (c *Controller) SubmitJob(req SubmitRequest, now time.Time) (*db.SubmitJobResult, error) {
	urls := dedupeURLs(req.URLs)
	if err := validate(req, urls); err != nil {
		return nil, err
	}

	accountIDs := req.SelectedAccountIDs
	if len(accountIDs) > 0 {
		eligible, err := c.accounts.ListEligible(req.UserID, accountIDs, now)
		if err != nil {
			return nil, fmt.Errorf("check account eligibility: %w", err)
		}
		if len(eligible) == 0 {
			return nil, db.ErrNoEligibleAccounts
		}
		accountIDs = make([]string, len(eligible))
		for i, a := range eligible {
			accountIDs[i] = a.ID
		}
	}

	result, err := c.db.SubmitJob(db.SubmitJobParams{
		UserID:               req.UserID,
		Type:                 req.Type,
		MaxResults:           req.MaxResults,
		URLs:                 urls,
		SelectedAccountIDs:   accountIDs,
		AccountSelectionMode: req.AccountSelectionMode,
		Now:                  now,
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", db.ErrInvalidArgument)
		}
		return nil, err
	}

	priority := db.DefaultPriority(req.Type)
	for _, item := range result.URLItems {
		werr := c.db.EnqueueWorkItem(db.WorkItem{
			JobID:       item.JobID,
			URLID:       item.ID,
			Priority:    priority,
			Status:      db.WorkItemPending,
			MaxAttempts: defaultMaxAttempts,
			VisibleAt:   now,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if werr != nil {
			// Step 9 is a post-commit side-effect: the job already exists
			// with pending URLs, so a failed enqueue here is recovered by
			// the Reconciler's stalled-job sweep rather than surfaced to
			// the caller.
			continue
		}
	}

	return result, nil
}
