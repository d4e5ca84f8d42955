package utils

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"time"

	"task-manager/server/config"
	"task-manager/server/logging"

	"github.com/sony/gobreaker"
)

// Mailer delivers a single HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPMailer struct {
	host     string
	port     string
	from     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg config.SMTP) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	if err := m.sendMail(m.host+":"+m.port, m.auth, m.from, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// WelcomeNotifier sends the post-registration email in the background.
// Failures are logged and never reach the caller.
type WelcomeNotifier struct {
	mailer  Mailer
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	// done, when set, receives the outcome of each send. Tests use it to wait.
	done chan<- error
}

func NewWelcomeNotifier(mailer Mailer) *WelcomeNotifier {
	return &WelcomeNotifier{
		mailer:  mailer,
		timeout: 10 * time.Second,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "smtp-cb",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
			},
		}),
	}
}

func (n *WelcomeNotifier) NotifyWelcome(to, username string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		_, err := n.breaker.Execute(func() (interface{}, error) {
			return nil, n.mailer.Send(ctx, to, "Welcome to Task Manager", welcomeBody(username))
		})
		if err != nil {
			logging.Logger.Warnf("Event ID: WELCOME_EMAIL_FAILED, Description: Welcome email to %s not sent: %v", to, err)
		} else {
			logging.Logger.Infof("Event ID: WELCOME_EMAIL_SENT, Description: Welcome email sent to %s", to)
		}
		if n.done != nil {
			n.done <- err
		}
	}()
}

func welcomeBody(username string) string {
	return fmt.Sprintf(`<h1>Welcome, %s!</h1>
<p>Your Task Manager account is ready. Start by creating your first task.</p>`, html.EscapeString(username))
}

// NopNotifier is used when SMTP is not configured.
type NopNotifier struct{}

func (NopNotifier) NotifyWelcome(string, string) {}
