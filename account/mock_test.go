package account

import (
	"time"

	"github.com/caasmo/restinpieces/db"
	"github.com/caasmo/restinpieces/queue"
)

// mockDB implements db.Db for testing purposes. Use function fields to
// override behavior in specific tests; unset fields fall back to a
// reasonable zero-value default.
type mockDB struct {
	GetUserByIDFunc func(id string) (*db.User, error)

	ListAccountsByUserFunc   func(userID string) ([]*db.Account, error)
	ListEligibleAccountsFunc func(userID string, restrictToIDs []string, now time.Time) ([]*db.Account, error)
	GetAccountFunc           func(accountID string) (*db.Account, error)
	ReserveAccountRequestFunc func(accountID string, now time.Time) (bool, error)
	ReportAccountOutcomeFunc func(accountID string, outcome db.AccountOutcome, now time.Time, blockDuration time.Duration) error
	ResetDailyCountersFunc   func(now time.Time) (int, error)
	UnblockAccountsFunc      func(now time.Time) (int, error)

	InsertNotifyJobFunc func(jobType string, payload []byte, now time.Time) error
}

var _ db.Db = (*mockDB)(nil)

func (m *mockDB) Close() {}

func (m *mockDB) GetUserByID(id string) (*db.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(id)
	}
	return nil, db.ErrNotFound
}

func (m *mockDB) GetUserByEmail(email string) (*db.User, error) { return nil, db.ErrNotFound }
func (m *mockDB) CreateUser(user db.User) (*db.User, error)     { return &user, nil }

func (m *mockDB) SubmitJob(p db.SubmitJobParams) (*db.SubmitJobResult, error) {
	return nil, db.ErrNotFound
}
func (m *mockDB) CountActiveJobsByUser(userID string) (int, error) { return 0, nil }

func (m *mockDB) ListAccountsByUser(userID string) ([]*db.Account, error) {
	if m.ListAccountsByUserFunc != nil {
		return m.ListAccountsByUserFunc(userID)
	}
	return nil, nil
}

func (m *mockDB) ListEligibleAccounts(userID string, restrictToIDs []string, now time.Time) ([]*db.Account, error) {
	if m.ListEligibleAccountsFunc != nil {
		return m.ListEligibleAccountsFunc(userID, restrictToIDs, now)
	}
	return nil, nil
}

func (m *mockDB) GetAccount(accountID string) (*db.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(accountID)
	}
	return nil, db.ErrNotFound
}

func (m *mockDB) ReserveAccountRequest(accountID string, now time.Time) (bool, error) {
	if m.ReserveAccountRequestFunc != nil {
		return m.ReserveAccountRequestFunc(accountID, now)
	}
	return true, nil
}

func (m *mockDB) ReportAccountOutcome(accountID string, outcome db.AccountOutcome, now time.Time, blockDuration time.Duration) error {
	if m.ReportAccountOutcomeFunc != nil {
		return m.ReportAccountOutcomeFunc(accountID, outcome, now, blockDuration)
	}
	return nil
}

func (m *mockDB) ResetDailyCounters(now time.Time) (int, error) {
	if m.ResetDailyCountersFunc != nil {
		return m.ResetDailyCountersFunc(now)
	}
	return 0, nil
}

func (m *mockDB) UnblockAccounts(now time.Time) (int, error) {
	if m.UnblockAccountsFunc != nil {
		return m.UnblockAccountsFunc(now)
	}
	return 0, nil
}

func (m *mockDB) GetJob(jobID string) (*db.Job, error)                       { return nil, db.ErrNotFound }
func (m *mockDB) ListJobsByUser(userID string, limit, offset int) ([]*db.Job, error) {
	return nil, nil
}
func (m *mockDB) TransitionJob(jobID string, from []db.JobStatus, to db.JobStatus, now time.Time) (bool, error) {
	return true, nil
}
func (m *mockDB) LeaseNextURL(jobID, accountID string, leaseDuration time.Duration, now time.Time) (*db.UrlWorkItem, error) {
	return nil, db.ErrNotFound
}
func (m *mockDB) CompleteURL(urlID string, payload []byte, payloadHash string, now time.Time) (bool, error) {
	return false, nil
}
func (m *mockDB) FailURL(urlID, errMsg string, retriable bool, maxAttempts int, now time.Time) (bool, error) {
	return false, nil
}
func (m *mockDB) ExpireLeases(now time.Time) ([]*db.UrlWorkItem, error) { return nil, nil }
func (m *mockDB) InsertResultRow(jobID string, urlID string, payload []byte, payloadHash string, now time.Time) (bool, error) {
	return false, nil
}
func (m *mockDB) InsertResultFile(f db.ResultFile) error { return nil }
func (m *mockDB) GetResults(jobID string) ([]*db.ResultRow, []*db.ResultFile, error) {
	return nil, nil, nil
}
func (m *mockDB) SetJobProgress(jobID string, percent int, message, currentURL string, now time.Time) error {
	return nil
}
func (m *mockDB) SetJobError(jobID, errMsg string, fatal bool, now time.Time) error { return nil }
func (m *mockDB) CancelJob(jobID string, now time.Time) error                       { return nil }
func (m *mockDB) PauseJob(jobID string, now time.Time) error                        { return nil }
func (m *mockDB) ResumeJob(jobID string, now time.Time) error                       { return nil }
func (m *mockDB) DeleteJob(jobID string) error                                      { return nil }

func (m *mockDB) ListStalledJobs(staleSince time.Time) ([]*db.Job, error) { return nil, nil }

func (m *mockDB) EnqueueWorkItem(item db.WorkItem) error { return nil }
func (m *mockDB) ReserveWorkItem(workerID string, now time.Time, leaseDuration time.Duration) (*db.WorkItem, error) {
	return nil, db.ErrNotFound
}
func (m *mockDB) AckWorkItem(id int64) error                                          { return nil }
func (m *mockDB) NackWorkItem(id int64, requeueDelay time.Duration, now time.Time) error { return nil }
func (m *mockDB) ExtendWorkItemLease(id int64, duration time.Duration, now time.Time) error {
	return nil
}
func (m *mockDB) ExpireWorkItemLeases(now time.Time) ([]*db.WorkItem, error) { return nil, nil }

func (m *mockDB) InsertNotifyJob(jobType string, payload []byte, now time.Time) error {
	if m.InsertNotifyJobFunc != nil {
		return m.InsertNotifyJobFunc(jobType, payload, now)
	}
	return nil
}
func (m *mockDB) ClaimNotifyJobs(limit int, now time.Time) ([]*queue.Job, error) { return nil, nil }
func (m *mockDB) MarkNotifyJobCompleted(id int64, now time.Time) error           { return nil }
func (m *mockDB) MarkNotifyJobFailed(id int64, errMsg string, now time.Time) error { return nil }
