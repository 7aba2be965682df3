package core

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/caasmo/restinpieces/dispatcher"
)

// WorkPoller hands Dispatcher-produced work orders to long-polling workers.
// It is the HTTP-facing half of dispatcher.Deliver: the Dispatcher pushes
// one order per successful reservation, WorkPollHandler blocks on the
// channel until either an order arrives or the request's context expires
// (spec.md §4.7, §6.2 — workers poll or long-poll, no real-time push).
type WorkPoller struct {
	orders chan dispatcher.WorkOrder
}

// NewWorkPoller builds a WorkPoller with the given channel capacity. A
// small buffer absorbs bursts where the Dispatcher reserves work faster
// than workers are currently polling.
func NewWorkPoller(buffer int) *WorkPoller {
	return &WorkPoller{orders: make(chan dispatcher.WorkOrder, buffer)}
}

// Deliver implements dispatcher.Deliver: it enqueues order for the next
// available poller, or fails fast if the request is cancelled first so the
// reserved queue item is nacked and retried rather than silently dropped.
func (p *WorkPoller) Deliver(ctx context.Context, order dispatcher.WorkOrder) error {
	select {
	case p.orders <- order:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// workOrderPayload is the wire shape handed to a worker, matching spec.md
// §6.2's poll response: {url_id, url, job_id, job_token, account_context}.
type workOrderPayload struct {
	JobID      string `json:"job_id"`
	URLID      string `json:"url_id"`
	URL        string `json:"url"`
	JobToken   string `json:"job_token"`
	LeaseUntil string `json:"lease_until"`
	Account    struct {
		AccountID       string `json:"account_id"`
		SessionMaterial string `json:"session_material"`
	} `json:"account_context"`
}

// WorkPollHandler blocks until a work order is available or the client
// gives up, matching the long-poll contract workers rely on instead of a
// persistent push connection.
// Endpoint: GET /api/work
// Authenticated: No (trusted worker network; see DESIGN.md)
func (a *App) WorkPollHandler(w http.ResponseWriter, r *http.Request) {
	if a.workPoller == nil {
		WriteJsonError(w, errorServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.Config().Dispatcher.WorkPollTimeout.Duration)
	defer cancel()

	select {
	case order := <-a.workPoller.orders:
		payload := workOrderPayload{
			JobID:      order.JobID,
			URLID:      order.URLID,
			URL:        order.URL,
			JobToken:   order.JobToken,
			LeaseUntil: order.LeaseUntil.Format(time.RFC3339Nano),
		}
		payload.Account.AccountID = order.Account.AccountID
		payload.Account.SessionMaterial = order.Account.SessionMaterial

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(payload)
	case <-ctx.Done():
		w.WriteHeader(http.StatusNoContent)
	}
}
