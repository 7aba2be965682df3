package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

// Duration wraps time.Duration so it can be given a literal zero value in
// Go code while still being a distinct type from the underlying stdlib one.
type Duration struct {
	Duration time.Duration
}

// UnmarshalText parses a duration string like "10s" or "5m".
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration in time.Duration's default string form.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LogLevel wraps slog.Level for the same reason as Duration.
type LogLevel struct {
	Level slog.Level
}

// UnmarshalText parses a level name such as "info" or "DEBUG".
func (l *LogLevel) UnmarshalText(text []byte) error {
	var level slog.Level
	if err := level.UnmarshalText(text); err != nil {
		return fmt.Errorf("invalid log level %q: %w", text, err)
	}
	l.Level = level
	return nil
}

// MarshalText renders the level the way slog.Level itself does ("INFO", "DEBUG", ...).
func (l LogLevel) MarshalText() ([]byte, error) {
	return l.Level.MarshalText()
}

// Regexp wraps a compiled *regexp.Regexp so config structs can hold a nil
// (unconfigured) pattern without a pointer field.
type Regexp struct {
	Regexp *regexp.Regexp
}

// UnmarshalText compiles text as a regular expression. An empty string
// leaves the pattern nil rather than erroring.
func (r *Regexp) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		r.Regexp = nil
		return nil
	}
	compiled, err := regexp.Compile(string(text))
	if err != nil {
		return fmt.Errorf("invalid regexp %q: %w", text, err)
	}
	r.Regexp = compiled
	return nil
}

// MarshalText renders the compiled pattern's source, or "" when unset.
func (r Regexp) MarshalText() ([]byte, error) {
	if r.Regexp == nil {
		return []byte{}, nil
	}
	return []byte(r.Regexp.String()), nil
}

// String returns the compiled pattern's source, or "" when unset.
func (r Regexp) String() string {
	if r.Regexp == nil {
		return ""
	}
	return r.Regexp.String()
}

// Provider holds the application configuration and allows for atomic updates.
type Provider struct {
	value atomic.Value // Holds the current *Config
}

// NewProvider creates a new configuration provider with the initial config.
// It panics if the initialConfig is nil.
func NewProvider(c *Config) *Provider {
	if c == nil {
		panic("initial config cannot be nil")
	}
	p := &Provider{}
	p.value.Store(c)
	return p
}

// Get returns the current configuration snapshot.
// It's safe for concurrent use.
func (p *Provider) Get() *Config {
	// Load returns interface{}, assert to *Config
	// This is safe because Store only accepts *Config.
	return p.value.Load().(*Config)
}

// Update atomically swaps the current configuration with the new one.
// The caller is responsible for ensuring newConfig is not nil.
func (p *Provider) Update(newConfig *Config) {
	// Assume newConfig is valid as the check is moved to the caller (signal handler)
	p.value.Store(newConfig)
	// Logging is now handled by the caller (e.g., signal handler in main.go)
}

const (
	EnvGoogleClientID     = "OAUTH2_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "OAUTH2_GOOGLE_CLIENT_SECRET"
	EnvGithubClientID     = "OAUTH2_GITHUB_CLIENT_ID"
	EnvGithubClientSecret = "OAUTH2_GITHUB_CLIENT_SECRET"
	EnvSmtpUsername       = "SMTP_USERNAME"
	EnvSmtpPassword       = "SMTP_PASSWORD"
)

const (
	OAuth2ProviderGoogle = "google"
	OAuth2ProviderGitHub = "github"
)

type OAuth2Provider struct {
	Name         string
	ClientID     string
	ClientSecret string
	DisplayName  string
	RedirectURL  string
	// RedirectURLPath is appended to the server's base URL when RedirectURL
	// itself isn't set, so a single OAuth2 app registration can follow the
	// server across hosts.
	RedirectURLPath string
	AuthURL         string
	TokenURL        string
	UserInfoURL     string
	Scopes          []string
	PKCE            bool
}

type Scheduler struct {
	// Interval controls how often the scheduler checks for new jobs.
	Interval Duration

	// MaxJobsPerTick limits how many jobs are fetched from the database per schedule
	// interval. This prevents overwhelming the system when there are many pending jobs.
	MaxJobsPerTick int

	// ConcurrencyMultiplier determines how many concurrent workers are spawned per CPU core.
	ConcurrencyMultiplier int
}

type Server struct {
	// Addr is the HTTP server address to listen on (e.g. ":8080" or "app.example.com:8080")
	Addr string

	// ShutdownGracefulTimeout is the maximum time to wait for graceful shutdown
	ShutdownGracefulTimeout Duration

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout Duration

	// ReadHeaderTimeout is the maximum duration for reading request headers
	ReadHeaderTimeout Duration

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout Duration

	// ClientIpProxyHeader specifies which HTTP header to trust for client IP addresses
	// when behind a proxy (e.g. "X-Forwarded-For", "X-Real-IP"). Empty means use
	// the direct connection IP (r.RemoteAddr).
	ClientIpProxyHeader string

	// EnableTLS serves HTTPS using CertData/KeyData instead of plain HTTP.
	EnableTLS bool

	// CertData and KeyData hold a PEM-encoded certificate and key inline,
	// so TLS material can ship as part of the config rather than as files.
	CertData string
	KeyData  string

	// RedirectAddr, when set, runs a second listener that redirects all
	// traffic to the main Addr (typically a plain-HTTP :80 redirector).
	RedirectAddr string
}

// BaseURL returns the full base URL including scheme and port
// Uses https in production (when not localhost)
// If Addr cannot be parsed, returns Addr as-is
func (s *Server) BaseURL() string {
	// Split host:port
	host, port, err := net.SplitHostPort(s.Addr)
	if err != nil {
		return s.Addr
	}

	// Default to localhost if no host specified
	if host == "" {
		host = "localhost"
	}

	// Determine scheme
	scheme := "http"
	if s.EnableTLS {
		scheme = "https"
	}

	// Include port in URL
	return fmt.Sprintf("%s://%s:%s", scheme, host, port)
}

// RouteLimit is a single sliding-window cap: at most MaxRequests per
// WindowSeconds, keyed per principal by the Rate Limiter (C2).
type RouteLimit struct {
	WindowSeconds int
	MaxRequests   int
}

type RateLimits struct {
	// PasswordResetCooldown specifies how long a user must wait between
	// password reset requests to prevent abuse and email spam
	PasswordResetCooldown Duration

	// EmailVerificationCooldown specifies how long a user must wait between
	// email verification requests to prevent abuse and email spam
	EmailVerificationCooldown Duration

	// EmailChangeCooldown specifies how long a user must wait between
	// email change requests to prevent abuse and email spam
	EmailChangeCooldown Duration

	// Route-class sliding-window caps for the job-orchestration API surface
	// (spec.md §4.2). Keyed by user ID when authenticated, by remote IP
	// otherwise.
	Login             RouteLimit
	Register          RouteLimit
	JobManagement     RouteLimit
	AccountManagement RouteLimit
	WorkerRead        RouteLimit
}

type Jwt struct {
	AuthSecret                     string
	AuthTokenDuration              Duration
	VerificationEmailSecret        string
	VerificationEmailTokenDuration Duration
	PasswordResetSecret            string
	PasswordResetTokenDuration     Duration
	EmailChangeSecret              string
	EmailChangeTokenDuration       Duration

	// UserTokenSecret signs the bearer tokens issued on password login and
	// checked on every authenticated request (core.JwtValidate).
	UserTokenSecret   string
	UserTokenDuration Duration

	// JobTokenSecret is independent from UserTokenSecret by design (spec.md
	// §9 "two-token scheme"): a leaked job capability token must never be
	// usable as a user session token and vice versa.
	JobTokenSecret   string
	JobTokenDuration Duration
}

// Dispatcher configures the C7 hot-path loop (spec.md §4.7).
type Dispatcher struct {
	// PollInterval is how long the loop sleeps after finding no reservable
	// queue item before trying again.
	PollInterval Duration
	// LeaseDuration is how long a reserved queue item and its leased URL
	// stay invisible to other dispatchers before being treated as stalled.
	LeaseDuration Duration
	// Workers is the number of concurrent dispatch goroutines per tick,
	// fanned out with errgroup.
	Workers int
	// NoAccountRequeueDelay is the nack delay when pick_account finds no
	// eligible account for the job.
	NoAccountRequeueDelay Duration
	// AccountBusyRequeueDelay is the nack delay when reserve_request loses
	// the race for the last quota slot on the chosen account.
	AccountBusyRequeueDelay Duration
	// WorkPollTimeout bounds how long a worker's long-poll request for work
	// is held open before returning an empty response (spec.md §6.2).
	WorkPollTimeout Duration
}

// Reconciler configures the C9 periodic sweep cadences (spec.md §4.9).
type Reconciler struct {
	UnblockAccountsInterval    Duration
	ExpireLeasesInterval       Duration
	RestartStalledJobsInterval Duration
	// StalledJobMultiplier is how many multiples of Dispatcher.LeaseDuration
	// a running job may go without progress before being considered stalled.
	StalledJobMultiplier int
}

// Accounts configures defaults applied to newly created Account rows and
// the hard-failure block duration used by ReportAccountOutcome.
type Accounts struct {
	DefaultDailyRequestLimit int
	TransientFailureCooldown Duration
	HardFailureBlockDuration Duration
	// ConsecutiveFailuresForCooldown/Block mirror the thresholds of
	// spec.md §4.3 (3 for cooldown, 5 for status=FAILED).
	ConsecutiveFailuresForCooldown int
	ConsecutiveFailuresForBlock    int
}

// Results configures the Result Ingestor's (C8) file upload limits
// (spec.md §6.3).
type Results struct {
	MaxFileSize       int64
	MaxFilesPerUpload int
	// UploadDir is where uploaded result files are written, one
	// subdirectory per job.
	UploadDir string
}

type Smtp struct {
	Enabled     bool
	Host        string
	Port        int
	Username    string
	Password    string
	FromName    string // Sender name (e.g. "My App")
	FromAddress string // Sender email address (e.g. "noreply@example.com")
	LocalName   string // HELO/EHLO domain (empty defaults to "localhost")
	AuthMethod  string // "plain", "login", "cram-md5", or "none"
	UseTLS      bool   // Use explicit TLS
	UseStartTLS bool   // Use STARTTLS
}

type Endpoints struct {
	ListEndpoints    string `json:"list_endpoints"`
	AuthWithPassword string `json:"auth_with_password"`
	SubmitJob        string `json:"submit_job"`
	GetJob           string `json:"get_job"`
	PauseJob         string `json:"pause_job"`
	ResumeJob        string `json:"resume_job"`
	CancelJob        string `json:"cancel_job"`
	DeleteJob        string `json:"delete_job"`

	// Result Ingestor (C8) surface, job-token authenticated (spec.md §6.1).
	ResultsSubmit   string `json:"results_submit"`
	ResultsUpload   string `json:"results_upload"`
	ResultsProgress string `json:"results_progress"`
	ResultsError    string `json:"results_error"`
	GetResults      string `json:"get_results"`

	// WorkPoll is the worker-facing long-poll endpoint the Dispatcher (C7)
	// delivers work orders through (spec.md §6.2).
	WorkPoll string `json:"work_poll"`
}

// Path extracts just the path portion from an endpoint string (removes method prefix)
func (e Endpoints) Path(endpoint string) string {
	parts := strings.SplitN(endpoint, " ", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return endpoint // fallback if no method prefix
}

// ConfirmHtml returns the HTML confirmation page path for an endpoint
// Follows naming convention: /api/confirm-X → /confirm-X.html
// This ensures consistency between API endpoints and their corresponding HTML pages
func (e Endpoints) ConfirmHtml(endpoint string) string {
	path := e.Path(endpoint)

	// Remove /api/ prefix if present
	path = strings.TrimPrefix(path, "/api")

	// Replace path with .html version
	return path + ".html"
}

type Config struct {
	Jwt             Jwt
	DBPath          string
	Scheduler       Scheduler
	Server          Server
	RateLimits      RateLimits
	OAuth2Providers map[string]OAuth2Provider
	Smtp            Smtp
	PublicDir       string // Directory to serve static files from
	Endpoints       Endpoints
	BlockIp         BlockIp
	Maintenance     Maintenance
	BlockUaList     BlockUaList
	BlockHost       BlockHost
	Notifier        Notifier
	Log             Log
	Metrics         Metrics
	Litestream      Litestream
	Cache           Cache
	Dispatcher      Dispatcher
	Reconciler      Reconciler
	Accounts        Accounts
	Results         Results
}

// BlockIp holds configuration for the sliding-window IP rate limiter that
// guards the request admission path.
type BlockIp struct {
	Enabled         bool
	Level           string // "low", "medium" or "high"
	ActivationRPS   int
	MaxSharePercent int
}

// Maintenance toggles the maintenance-mode response for all non-exempt routes.
type Maintenance struct {
	Activated bool
}

// BlockUaList rejects requests whose User-Agent header matches List.
type BlockUaList struct {
	Activated bool
	List      Regexp
}

// BlockHost rejects requests whose Host header isn't in AllowedHosts.
type BlockHost struct {
	Activated    bool
	AllowedHosts []string
}

// Notifier groups outbound alerting channels.
type Notifier struct {
	Discord Discord
}

// Discord sends operational alerts to a Discord webhook.
type Discord struct {
	Activated    bool
	WebhookURL   string
	APIRateLimit Duration
	APIBurst     int
	SendTimeout  Duration
}

// Log groups request logging and the async batch logger sink.
type Log struct {
	Request LogRequest
	Batch   BatchLogger
}

// LogRequestLimits caps how many bytes of each request field are logged.
type LogRequestLimits struct {
	URILength       int
	UserAgentLength int
	RefererLength   int
	RemoteIPLength  int
}

// LogRequest controls per-request access logging.
type LogRequest struct {
	Activated bool
	Limits    LogRequestLimits
}

// BatchLogger controls the async batched log sink.
type BatchLogger struct {
	Enabled       bool
	ChanSize      int
	FlushSize     int
	FlushInterval Duration
	Level         LogLevel
	DbPath        string
}

// Metrics controls exposure of the Prometheus /metrics endpoint.
type Metrics struct {
	Enabled    bool
	AllowedIPs []string
}

// Litestream configures continuous streaming replication of the job-store
// SQLite database to a local replica directory.
type Litestream struct {
	Enabled     bool
	ReplicaPath string
	ReplicaName string
}

// Cache selects the in-memory ristretto sizing preset used for cached
// lookups (account eligibility, job status). One of "small", "medium",
// "large" or "very-large".
type Cache struct {
	Level string
}

const (
	DefaultReadTimeout         = 2 * time.Second
	DefaultReadHeaderTimeout   = 2 * time.Second
	DefaultWriteTimeout        = 3 * time.Second
	DefaultIdleTimeout         = 1 * time.Minute
	DefaultShutdownTimeout     = 15 * time.Second
	CodeOkEndpointsWithAuth    = "ok_endpoints_with_auth"
	CodeOkEndpointsWithoutAuth = "ok_endpoints_without_auth"
	MsgEndpointsWithAuth       = "List of all available endpoints"
	MsgEndpointsWithoutAuth    = "List of endpoints available without authentication"
)

func FillServer(cfg *Config) Server {
	s := cfg.Server

	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.ShutdownGracefulTimeout.Duration == 0 {
		s.ShutdownGracefulTimeout = Duration{Duration: DefaultShutdownTimeout}
	}
	if s.ReadTimeout.Duration == 0 {
		s.ReadTimeout = Duration{Duration: DefaultReadTimeout}
	}
	if s.ReadHeaderTimeout.Duration == 0 {
		s.ReadHeaderTimeout = Duration{Duration: DefaultReadHeaderTimeout}
	}
	if s.WriteTimeout.Duration == 0 {
		s.WriteTimeout = Duration{Duration: DefaultWriteTimeout}
	}
	if s.IdleTimeout.Duration == 0 {
		s.IdleTimeout = Duration{Duration: DefaultIdleTimeout}
	}

	return s
}

// Load builds the runtime configuration starting from NewDefaultConfig and
// layering the database path and environment-sourced secrets on top.
func Load(dbfile string) (*Config, error) {
	cfg := NewDefaultConfig()
	cfg.DBPath = dbfile

	if cfg.OAuth2Providers == nil {
		cfg.OAuth2Providers = make(map[string]OAuth2Provider)
	}

	if v := os.Getenv("JWT_AUTH_SECRET"); v != "" {
		cfg.Jwt.AuthSecret = v
	}
	if v := os.Getenv("JWT_VERIFICATION_EMAIL_SECRET"); v != "" {
		cfg.Jwt.VerificationEmailSecret = v
	}
	if v := os.Getenv("JWT_PASSWORD_RESET_SECRET"); v != "" {
		cfg.Jwt.PasswordResetSecret = v
	}
	if v := os.Getenv("JWT_EMAIL_CHANGE_SECRET"); v != "" {
		cfg.Jwt.EmailChangeSecret = v
	}
	if v := os.Getenv("JWT_USER_TOKEN_SECRET"); v != "" {
		cfg.Jwt.UserTokenSecret = v
	}

	if v := os.Getenv(EnvSmtpUsername); v != "" {
		cfg.Smtp.Username = v
	}
	if v := os.Getenv(EnvSmtpPassword); v != "" {
		cfg.Smtp.Password = v
	}
	if fromAddr := os.Getenv("SMTP_FROM_ADDRESS"); fromAddr != "" {
		cfg.Smtp.FromAddress = fromAddr
	}

	baseURL := cfg.Server.BaseURL()

	if googleCfg, ok := cfg.OAuth2Providers[OAuth2ProviderGoogle]; ok {
		googleCfg.ClientID = os.Getenv(EnvGoogleClientID)
		googleCfg.ClientSecret = os.Getenv(EnvGoogleClientSecret)
		googleCfg.RedirectURL = fmt.Sprintf("%s/oauth2/callback/", baseURL)
		if googleCfg.ClientID != "" && googleCfg.ClientSecret != "" {
			cfg.OAuth2Providers[OAuth2ProviderGoogle] = googleCfg
		} else {
			delete(cfg.OAuth2Providers, OAuth2ProviderGoogle)
		}
	}

	if githubCfg, ok := cfg.OAuth2Providers[OAuth2ProviderGitHub]; ok {
		githubCfg.ClientID = os.Getenv(EnvGithubClientID)
		githubCfg.ClientSecret = os.Getenv(EnvGithubClientSecret)
		githubCfg.RedirectURL = fmt.Sprintf("%s/oauth2/callback/", baseURL)
		if githubCfg.ClientID != "" && githubCfg.ClientSecret != "" {
			cfg.OAuth2Providers[OAuth2ProviderGitHub] = githubCfg
		} else {
			delete(cfg.OAuth2Providers, OAuth2ProviderGitHub)
		}
	}

	return cfg, nil
}
