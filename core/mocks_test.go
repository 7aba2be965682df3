package core

import (
	"net/http"
	"time"

	"github.com/caasmo/restinpieces/db"
	"github.com/caasmo/restinpieces/queue"
	"github.com/caasmo/restinpieces/router"
)

// Compile-time check to ensure MockDB implements the storage interface
// consumed by every component of the core.
var _ db.Db = (*MockDB)(nil)

// MockDB implements db.Db for testing purposes. Use function fields to
// override behavior in specific tests; unset fields fall back to a
// reasonable zero-value default.
type MockDB struct {
	GetUserByIDFunc    func(id string) (*db.User, error)
	GetUserByEmailFunc func(email string) (*db.User, error)
	CreateUserFunc     func(user db.User) (*db.User, error)

	SubmitJobFunc            func(p db.SubmitJobParams) (*db.SubmitJobResult, error)
	CountActiveJobsByUserFunc func(userID string) (int, error)

	ListAccountsByUserFunc   func(userID string) ([]*db.Account, error)
	ListEligibleAccountsFunc func(userID string, restrictToIDs []string, now time.Time) ([]*db.Account, error)
	GetAccountFunc           func(accountID string) (*db.Account, error)
	ReserveAccountRequestFunc func(accountID string, now time.Time) (bool, error)
	ReportAccountOutcomeFunc func(accountID string, outcome db.AccountOutcome, now time.Time, blockDuration time.Duration) error
	ResetDailyCountersFunc   func(now time.Time) (int, error)
	UnblockAccountsFunc      func(now time.Time) (int, error)

	GetJobFunc         func(jobID string) (*db.Job, error)
	ListJobsByUserFunc func(userID string, limit, offset int) ([]*db.Job, error)
	TransitionJobFunc  func(jobID string, from []db.JobStatus, to db.JobStatus, now time.Time) (bool, error)
	LeaseNextURLFunc   func(jobID, accountID string, leaseDuration time.Duration, now time.Time) (*db.UrlWorkItem, error)
	CompleteURLFunc    func(urlID string, payload []byte, payloadHash string, now time.Time) (bool, error)
	FailURLFunc        func(urlID, errMsg string, retriable bool, maxAttempts int, now time.Time) (bool, error)
	ExpireLeasesFunc   func(now time.Time) ([]*db.UrlWorkItem, error)
	InsertResultRowFunc  func(jobID string, urlID string, payload []byte, payloadHash string, now time.Time) (bool, error)
	InsertResultFileFunc func(f db.ResultFile) error
	GetResultsFunc       func(jobID string) ([]*db.ResultRow, []*db.ResultFile, error)
	SetJobProgressFunc func(jobID string, percent int, message, currentURL string, now time.Time) error
	SetJobErrorFunc    func(jobID, errMsg string, fatal bool, now time.Time) error
	CancelJobFunc      func(jobID string, now time.Time) error
	PauseJobFunc       func(jobID string, now time.Time) error
	ResumeJobFunc      func(jobID string, now time.Time) error
	DeleteJobFunc      func(jobID string) error

	ListStalledJobsFunc func(staleSince time.Time) ([]*db.Job, error)

	EnqueueWorkItemFunc      func(item db.WorkItem) error
	ReserveWorkItemFunc      func(workerID string, now time.Time, leaseDuration time.Duration) (*db.WorkItem, error)
	AckWorkItemFunc          func(id int64) error
	NackWorkItemFunc         func(id int64, requeueDelay time.Duration, now time.Time) error
	ExtendWorkItemLeaseFunc  func(id int64, duration time.Duration, now time.Time) error
	ExpireWorkItemLeasesFunc func(now time.Time) ([]*db.WorkItem, error)

	InsertNotifyJobFunc      func(jobType string, payload []byte, now time.Time) error
	ClaimNotifyJobsFunc      func(limit int, now time.Time) ([]*queue.Job, error)
	MarkNotifyJobCompletedFunc func(id int64, now time.Time) error
	MarkNotifyJobFailedFunc  func(id int64, errMsg string, now time.Time) error

	CloseFunc func()
}

func (m *MockDB) Close() {
	if m.CloseFunc != nil {
		m.CloseFunc()
	}
}

func (m *MockDB) GetUserByID(id string) (*db.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(id)
	}
	return nil, db.ErrNotFound
}

func (m *MockDB) GetUserByEmail(email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(email)
	}
	return nil, db.ErrNotFound
}

func (m *MockDB) CreateUser(user db.User) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(user)
	}
	user.ID = "mock-user-id"
	return &user, nil
}

func (m *MockDB) SubmitJob(p db.SubmitJobParams) (*db.SubmitJobResult, error) {
	if m.SubmitJobFunc != nil {
		return m.SubmitJobFunc(p)
	}
	return nil, db.ErrNotFound
}

func (m *MockDB) CountActiveJobsByUser(userID string) (int, error) {
	if m.CountActiveJobsByUserFunc != nil {
		return m.CountActiveJobsByUserFunc(userID)
	}
	return 0, nil
}

func (m *MockDB) ListAccountsByUser(userID string) ([]*db.Account, error) {
	if m.ListAccountsByUserFunc != nil {
		return m.ListAccountsByUserFunc(userID)
	}
	return nil, nil
}

func (m *MockDB) ListEligibleAccounts(userID string, restrictToIDs []string, now time.Time) ([]*db.Account, error) {
	if m.ListEligibleAccountsFunc != nil {
		return m.ListEligibleAccountsFunc(userID, restrictToIDs, now)
	}
	return nil, nil
}

func (m *MockDB) GetAccount(accountID string) (*db.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(accountID)
	}
	return nil, db.ErrNotFound
}

func (m *MockDB) ReserveAccountRequest(accountID string, now time.Time) (bool, error) {
	if m.ReserveAccountRequestFunc != nil {
		return m.ReserveAccountRequestFunc(accountID, now)
	}
	return true, nil
}

func (m *MockDB) ReportAccountOutcome(accountID string, outcome db.AccountOutcome, now time.Time, blockDuration time.Duration) error {
	if m.ReportAccountOutcomeFunc != nil {
		return m.ReportAccountOutcomeFunc(accountID, outcome, now, blockDuration)
	}
	return nil
}

func (m *MockDB) ResetDailyCounters(now time.Time) (int, error) {
	if m.ResetDailyCountersFunc != nil {
		return m.ResetDailyCountersFunc(now)
	}
	return 0, nil
}

func (m *MockDB) UnblockAccounts(now time.Time) (int, error) {
	if m.UnblockAccountsFunc != nil {
		return m.UnblockAccountsFunc(now)
	}
	return 0, nil
}

func (m *MockDB) GetJob(jobID string) (*db.Job, error) {
	if m.GetJobFunc != nil {
		return m.GetJobFunc(jobID)
	}
	return nil, db.ErrNotFound
}

func (m *MockDB) ListJobsByUser(userID string, limit, offset int) ([]*db.Job, error) {
	if m.ListJobsByUserFunc != nil {
		return m.ListJobsByUserFunc(userID, limit, offset)
	}
	return nil, nil
}

func (m *MockDB) TransitionJob(jobID string, from []db.JobStatus, to db.JobStatus, now time.Time) (bool, error) {
	if m.TransitionJobFunc != nil {
		return m.TransitionJobFunc(jobID, from, to, now)
	}
	return true, nil
}

func (m *MockDB) LeaseNextURL(jobID, accountID string, leaseDuration time.Duration, now time.Time) (*db.UrlWorkItem, error) {
	if m.LeaseNextURLFunc != nil {
		return m.LeaseNextURLFunc(jobID, accountID, leaseDuration, now)
	}
	return nil, db.ErrNotFound
}

func (m *MockDB) CompleteURL(urlID string, payload []byte, payloadHash string, now time.Time) (bool, error) {
	if m.CompleteURLFunc != nil {
		return m.CompleteURLFunc(urlID, payload, payloadHash, now)
	}
	return false, nil
}

func (m *MockDB) FailURL(urlID, errMsg string, retriable bool, maxAttempts int, now time.Time) (bool, error) {
	if m.FailURLFunc != nil {
		return m.FailURLFunc(urlID, errMsg, retriable, maxAttempts, now)
	}
	return false, nil
}

func (m *MockDB) ExpireLeases(now time.Time) ([]*db.UrlWorkItem, error) {
	if m.ExpireLeasesFunc != nil {
		return m.ExpireLeasesFunc(now)
	}
	return nil, nil
}

func (m *MockDB) InsertResultRow(jobID string, urlID string, payload []byte, payloadHash string, now time.Time) (bool, error) {
	if m.InsertResultRowFunc != nil {
		return m.InsertResultRowFunc(jobID, urlID, payload, payloadHash, now)
	}
	return false, nil
}

func (m *MockDB) InsertResultFile(f db.ResultFile) error {
	if m.InsertResultFileFunc != nil {
		return m.InsertResultFileFunc(f)
	}
	return nil
}

func (m *MockDB) GetResults(jobID string) ([]*db.ResultRow, []*db.ResultFile, error) {
	if m.GetResultsFunc != nil {
		return m.GetResultsFunc(jobID)
	}
	return nil, nil, nil
}

func (m *MockDB) SetJobProgress(jobID string, percent int, message, currentURL string, now time.Time) error {
	if m.SetJobProgressFunc != nil {
		return m.SetJobProgressFunc(jobID, percent, message, currentURL, now)
	}
	return nil
}

func (m *MockDB) SetJobError(jobID, errMsg string, fatal bool, now time.Time) error {
	if m.SetJobErrorFunc != nil {
		return m.SetJobErrorFunc(jobID, errMsg, fatal, now)
	}
	return nil
}

func (m *MockDB) CancelJob(jobID string, now time.Time) error {
	if m.CancelJobFunc != nil {
		return m.CancelJobFunc(jobID, now)
	}
	return nil
}

func (m *MockDB) PauseJob(jobID string, now time.Time) error {
	if m.PauseJobFunc != nil {
		return m.PauseJobFunc(jobID, now)
	}
	return nil
}

func (m *MockDB) ResumeJob(jobID string, now time.Time) error {
	if m.ResumeJobFunc != nil {
		return m.ResumeJobFunc(jobID, now)
	}
	return nil
}

func (m *MockDB) DeleteJob(jobID string) error {
	if m.DeleteJobFunc != nil {
		return m.DeleteJobFunc(jobID)
	}
	return nil
}

func (m *MockDB) ListStalledJobs(staleSince time.Time) ([]*db.Job, error) {
	if m.ListStalledJobsFunc != nil {
		return m.ListStalledJobsFunc(staleSince)
	}
	return nil, nil
}

func (m *MockDB) EnqueueWorkItem(item db.WorkItem) error {
	if m.EnqueueWorkItemFunc != nil {
		return m.EnqueueWorkItemFunc(item)
	}
	return nil
}

func (m *MockDB) ReserveWorkItem(workerID string, now time.Time, leaseDuration time.Duration) (*db.WorkItem, error) {
	if m.ReserveWorkItemFunc != nil {
		return m.ReserveWorkItemFunc(workerID, now, leaseDuration)
	}
	return nil, db.ErrNotFound
}

func (m *MockDB) AckWorkItem(id int64) error {
	if m.AckWorkItemFunc != nil {
		return m.AckWorkItemFunc(id)
	}
	return nil
}

func (m *MockDB) NackWorkItem(id int64, requeueDelay time.Duration, now time.Time) error {
	if m.NackWorkItemFunc != nil {
		return m.NackWorkItemFunc(id, requeueDelay, now)
	}
	return nil
}

func (m *MockDB) ExtendWorkItemLease(id int64, duration time.Duration, now time.Time) error {
	if m.ExtendWorkItemLeaseFunc != nil {
		return m.ExtendWorkItemLeaseFunc(id, duration, now)
	}
	return nil
}

func (m *MockDB) ExpireWorkItemLeases(now time.Time) ([]*db.WorkItem, error) {
	if m.ExpireWorkItemLeasesFunc != nil {
		return m.ExpireWorkItemLeasesFunc(now)
	}
	return nil, nil
}

func (m *MockDB) InsertNotifyJob(jobType string, payload []byte, now time.Time) error {
	if m.InsertNotifyJobFunc != nil {
		return m.InsertNotifyJobFunc(jobType, payload, now)
	}
	return nil
}

func (m *MockDB) ClaimNotifyJobs(limit int, now time.Time) ([]*queue.Job, error) {
	if m.ClaimNotifyJobsFunc != nil {
		return m.ClaimNotifyJobsFunc(limit, now)
	}
	return nil, nil
}

func (m *MockDB) MarkNotifyJobCompleted(id int64, now time.Time) error {
	if m.MarkNotifyJobCompletedFunc != nil {
		return m.MarkNotifyJobCompletedFunc(id, now)
	}
	return nil
}

func (m *MockDB) MarkNotifyJobFailed(id int64, errMsg string, now time.Time) error {
	if m.MarkNotifyJobFailedFunc != nil {
		return m.MarkNotifyJobFailedFunc(id, errMsg, now)
	}
	return nil
}

// MockRouter implements router.Router interface for testing
type MockRouter struct{}

func (m *MockRouter) Handle(path string, handler http.Handler)                                 {}
func (m *MockRouter) HandleFunc(path string, handler func(http.ResponseWriter, *http.Request)) {}
func (m *MockRouter) ServeHTTP(w http.ResponseWriter, r *http.Request)                         {}
func (m *MockRouter) Param(req *http.Request, key string) string                               { return "" }
func (m *MockRouter) Register(routes ...*router.Route)                                         {}
