package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"

	"github.com/Dan9191/world-service/internal/config"
	"github.com/Dan9191/world-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(ctx context.Context, e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send:   deliver,
	}
}

// SendWelcome greets a newly registered user. The SMTP exchange is abandoned
// when ctx is done.
func (s *Sender) SendWelcome(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{user.Email}
	e.Subject = "Welcome to your worlds"
	e.Text = []byte(WelcomeBody(user.Username))

	// Send email
	addr := net.JoinHostPort(s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(ctx, e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send welcome email to %s: %v", user.Email, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", user.Email, e.Subject)
	return nil
}

// deliver runs one SMTP transaction on a connection that is closed as soon
// as ctx is done, so a server that stalls cannot hold the caller.
func deliver(ctx context.Context, e *email.Email, addr string, auth smtp.Auth) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	from, err := mail.ParseAddress(e.From)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	msg, err := e.Bytes()
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return contextOr(ctx, err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return contextOr(ctx, err)
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return contextOr(ctx, err)
			}
		}
	}
	if err := c.Mail(from.Address); err != nil {
		return contextOr(ctx, err)
	}
	for _, rcpt := range append(append(append([]string{}, e.To...), e.Cc...), e.Bcc...) {
		if err := c.Rcpt(rcpt); err != nil {
			return contextOr(ctx, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return contextOr(ctx, err)
	}
	if _, err := w.Write(msg); err != nil {
		return contextOr(ctx, err)
	}
	if err := w.Close(); err != nil {
		return contextOr(ctx, err)
	}
	return contextOr(ctx, c.Quit())
}

// contextOr prefers the context error when the connection died because ctx ended
func contextOr(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

// WelcomeBody formats the plain-text welcome message
func WelcomeBody(username string) string {
	body := fmt.Sprintf("Dear %s,\n\n", username)
	body += "Your account is ready. Create your first world and start filling it\n" +
		"with characters, locations and events.\n"
	body += "\nBest regards,\nThe Worlds team"
	return body
}
