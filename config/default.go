package config

import (
	"log/slog"
	"regexp"
	"time"

	"github.com/caasmo/restinpieces/crypto"
)

// NewDefaultConfig creates a new Config with sensible defaults.
// All secret values are randomly generated.
func NewDefaultConfig() *Config {
	return &Config{
		DBPath:    "app.db",
		PublicDir: "static/dist",
		Jwt: Jwt{
			AuthSecret:                     crypto.RandomString(32, crypto.AlphanumericAlphabet),
			AuthTokenDuration:              Duration{Duration: 45 * time.Minute},
			VerificationEmailSecret:        crypto.RandomString(32, crypto.AlphanumericAlphabet),
			VerificationEmailTokenDuration: Duration{Duration: 24 * time.Hour},
			PasswordResetSecret:            crypto.RandomString(32, crypto.AlphanumericAlphabet),
			PasswordResetTokenDuration:     Duration{Duration: 1 * time.Hour},
			EmailChangeSecret:              crypto.RandomString(32, crypto.AlphanumericAlphabet),
			EmailChangeTokenDuration:       Duration{Duration: 1 * time.Hour},
			UserTokenSecret:                crypto.RandomString(32, crypto.AlphanumericAlphabet),
			UserTokenDuration:              Duration{Duration: 24 * time.Hour},
			JobTokenSecret:                 crypto.RandomString(32, crypto.AlphanumericAlphabet),
			JobTokenDuration:               Duration{Duration: 1 * time.Hour},
		},
		Scheduler: Scheduler{
			Interval:              Duration{Duration: 60 * time.Second},
			MaxJobsPerTick:        10,
			ConcurrencyMultiplier: 2,
		},
		Log: Log{
			Request: LogRequest{
				Activated: true,
				Limits: LogRequestLimits{
					URILength:       512,
					UserAgentLength: 256,
					RefererLength:   512,
					RemoteIPLength:  64,
				},
			},
			Batch: BatchLogger{
				Enabled:       true,
				FlushSize:     100,
				ChanSize:      1000,
				FlushInterval: Duration{Duration: 5 * time.Second},
				Level:         LogLevel{Level: slog.LevelInfo},
				DbPath:        "logs.db",
			},
		},
		Server: Server{
			Addr:                    ":8080",
			ShutdownGracefulTimeout: Duration{Duration: 15 * time.Second},
			ReadTimeout:             Duration{Duration: 2 * time.Second},
			ReadHeaderTimeout:       Duration{Duration: 2 * time.Second},
			WriteTimeout:            Duration{Duration: 3 * time.Second},
			IdleTimeout:             Duration{Duration: 1 * time.Minute},
			ClientIpProxyHeader:     "",
			EnableTLS:               false,
			CertData:                "",
			KeyData:                 "",
			RedirectAddr:            "",
		},
		RateLimits: RateLimits{
			PasswordResetCooldown:     Duration{Duration: 2 * time.Hour},
			EmailVerificationCooldown: Duration{Duration: 1 * time.Hour},
			EmailChangeCooldown:       Duration{Duration: 1 * time.Hour},
			Login:                     RouteLimit{WindowSeconds: 900, MaxRequests: 5},
			Register:                  RouteLimit{WindowSeconds: 900, MaxRequests: 10},
			JobManagement:             RouteLimit{WindowSeconds: 900, MaxRequests: 30},
			AccountManagement:         RouteLimit{WindowSeconds: 900, MaxRequests: 50},
			WorkerRead:                RouteLimit{WindowSeconds: 300, MaxRequests: 100},
		},
		OAuth2Providers: map[string]OAuth2Provider{
			"google": {
				Name:            "google",
				DisplayName:     "Google",
				RedirectURL:     "",
				RedirectURLPath: "/oauth2/google/callback",
				AuthURL:         "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL:        "https://oauth2.googleapis.com/token",
				UserInfoURL:     "https://www.googleapis.com/oauth2/v3/userinfo",
				Scopes:          []string{"https://www.googleapis.com/auth/userinfo.profile", "https://www.googleapis.com/auth/userinfo.email"},
				PKCE:            true,
				ClientID:        "",
				ClientSecret:    "",
			},
			"github": {
				Name:            "github",
				DisplayName:     "GitHub",
				RedirectURL:     "",
				RedirectURLPath: "/oauth2/github/callback",
				AuthURL:         "https://github.com/login/oauth/authorize",
				TokenURL:        "https://github.com/login/oauth/access_token",
				UserInfoURL:     "https://api.github.com/user",
				Scopes:          []string{"read:user", "user:email"},
				PKCE:            true,
				ClientID:        "",
				ClientSecret:    "",
			},
		},
		Smtp: Smtp{
			Enabled:     false,
			Host:        "smtp.gmail.com",
			Port:        587,
			FromName:    "My App",
			FromAddress: "",
			LocalName:   "",
			AuthMethod:  "plain",
			UseTLS:      false,
			UseStartTLS: true,
			Username:    "",
			Password:    "",
		},
		Endpoints: Endpoints{
			ListEndpoints:    "GET /api/list-endpoints",
			AuthWithPassword: "POST /api/auth-with-password",
			SubmitJob:        "POST /api/jobs",
			GetJob:           "GET /api/jobs/{id}",
			PauseJob:         "POST /api/jobs/{id}/pause",
			ResumeJob:        "POST /api/jobs/{id}/resume",
			CancelJob:        "POST /api/jobs/{id}/cancel",
			DeleteJob:        "DELETE /api/jobs/{id}",

			ResultsSubmit:   "POST /api/results/submit",
			ResultsUpload:   "POST /api/results/upload",
			ResultsProgress: "POST /api/results/progress",
			ResultsError:    "POST /api/results/error",
			GetResults:      "GET /api/results/{job_id}",

			WorkPoll: "GET /api/work",
		},
		BlockIp: BlockIp{
			Enabled:         true,
			Level:           "medium",
			ActivationRPS:   50,
			MaxSharePercent: 20,
		},
		Maintenance: Maintenance{
			Activated: false,
		},
		BlockUaList: BlockUaList{
			Activated: true,
			List: Regexp{
				Regexp: regexp.MustCompile(`(BotName\.v1|Super\-Bot|My\ Bot|AnotherBot)`),
			},
		},
		BlockHost: BlockHost{
			Activated:    true,
			AllowedHosts: []string{"localhost"},
		},
		Notifier: Notifier{
			Discord: Discord{
				Activated:    false,
				WebhookURL:   "",
				APIRateLimit: Duration{Duration: 2 * time.Second},
				APIBurst:     1,
				SendTimeout:  Duration{Duration: 10 * time.Second},
			},
		},
		Metrics: Metrics{
			Enabled:    true,
			AllowedIPs: []string{"127.0.0.1", "::1"},
		},
		Litestream: Litestream{
			Enabled:     false,
			ReplicaPath: "litestream_replica",
			ReplicaName: "local",
		},
		Cache: Cache{
			Level: "small",
		},
		Dispatcher: Dispatcher{
			PollInterval:            Duration{Duration: 500 * time.Millisecond},
			LeaseDuration:           Duration{Duration: 5 * time.Minute},
			Workers:                 2,
			NoAccountRequeueDelay:   Duration{Duration: 30 * time.Second},
			AccountBusyRequeueDelay: Duration{Duration: 5 * time.Second},
			WorkPollTimeout:         Duration{Duration: 25 * time.Second},
		},
		Reconciler: Reconciler{
			UnblockAccountsInterval:    Duration{Duration: 1 * time.Minute},
			ExpireLeasesInterval:       Duration{Duration: 30 * time.Second},
			RestartStalledJobsInterval: Duration{Duration: 30 * time.Minute},
			StalledJobMultiplier:       2,
		},
		Accounts: Accounts{
			DefaultDailyRequestLimit:       150,
			TransientFailureCooldown:       Duration{Duration: 30 * time.Minute},
			HardFailureBlockDuration:       Duration{Duration: 60 * time.Minute},
			ConsecutiveFailuresForCooldown: 3,
			ConsecutiveFailuresForBlock:    5,
		},
		Results: Results{
			MaxFileSize:       50 * 1024 * 1024,
			MaxFilesPerUpload: 5,
			UploadDir:         "./data/result_uploads",
		},
	}
}
