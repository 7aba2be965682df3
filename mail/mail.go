package mail

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/queue"
	"github.com/domodwyer/mailyak/v3"
)

// Mailer sends outbound notifications and implements queue.JobHandler for
// notify_jobs rows. It reads SMTP settings from the provider on every send
// so a config reload takes effect without restarting the scheduler.
type Mailer struct {
	provider *config.Provider
}

// New creates a Mailer bound to a live config provider.
func New(provider *config.Provider) (*Mailer, error) {
	if provider == nil {
		return nil, fmt.Errorf("mail: provider cannot be nil")
	}
	return &Mailer{provider: provider}, nil
}

// Handle implements queue.JobHandler for JobTypeAccountBlocked rows.
func (m *Mailer) Handle(ctx context.Context, job queue.Job) error {
	var payload queue.PayloadAccountBlocked
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse account blocked payload: %w", err)
	}

	return m.SendAccountBlockedNotification(ctx, payload.Email, payload.AccountID, payload.Reason)
}

func smtpAuth(cfg config.Smtp) smtp.Auth {
	switch cfg.AuthMethod {
	case "login":
		return &loginAuth{username: cfg.Username, password: cfg.Password}
	case "cram-md5":
		return smtp.CRAMMD5Auth(cfg.Username, cfg.Password)
	case "none":
		return nil
	default: // "plain" or empty
		return smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
}

func (m *Mailer) newClient(cfg config.Smtp) (*mailyak.MailYak, error) {
	mail, err := mailyak.NewWithTLS(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), smtpAuth(cfg), &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: !cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	mail.From(cfg.FromAddress)
	mail.FromName(cfg.FromName)
	return mail, nil
}

func (m *Mailer) send(ctx context.Context, mail *mailyak.MailYak) error {
	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	}
	return nil
}

// SendAccountBlockedNotification tells a user that one of their accounts was
// moved to the blocked state by the registry's hard-failure transition
// (spec.md §4.3).
func (m *Mailer) SendAccountBlockedNotification(ctx context.Context, email, accountID, reason string) error {
	cfg := m.provider.Get().Smtp

	mail, err := m.newClient(cfg)
	if err != nil {
		return err
	}

	mail.To(email)
	mail.Subject(fmt.Sprintf("%s: account %s has been blocked", cfg.FromName, accountID))
	mail.HTML().Set(fmt.Sprintf(`
		<h1>Account blocked</h1>
		<p>Account <strong>%s</strong> has been blocked and will no longer be used to process jobs.</p>
		<p>Reason: %s</p>
	`, accountID, reason))

	if err := m.send(ctx, mail); err != nil {
		return err
	}

	slog.Info("sent account blocked notification", "email", email, "account_id", accountID)
	return nil
}

// loginAuth implements the SMTP AUTH LOGIN mechanism, which net/smtp does
// not provide out of the box.
type loginAuth struct {
	username string
	password string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(fromServer) {
	case "Username:":
		return []byte(a.username), nil
	case "Password:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected server challenge: %s", fromServer)
	}
}
