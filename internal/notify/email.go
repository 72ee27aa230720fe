package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/userdesk/userdesk/internal/config"
)

// SMTPNotifier sends confirmation emails through a plain SMTP relay.
type SMTPNotifier struct {
	cfg *config.EmailConfig
	log *zap.Logger
}

func NewSMTPNotifier(cfg *config.EmailConfig, log *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		cfg: cfg,
		log: log,
	}
}

func (n *SMTPNotifier) SendConfirmation(ctx context.Context, toEmail, confirmationLink string) error {
	if n.cfg.SMTPHost == "" || n.cfg.FromAddress == "" {
		n.log.Warn("email config missing, skipping confirmation email")
		return nil
	}
	if strings.TrimSpace(toEmail) == "" {
		return errors.New("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.cfg.FromAddress, n.cfg.FromName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Confirm your registration")
	m.SetBody("text/html", buildConfirmationBody(confirmationLink))

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)

	// DialAndSend has no context support; bound it ourselves so a stalled
	// relay cannot hold the sending goroutine forever.
	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send confirmation email: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	n.log.Info("confirmation email sent", zap.String("to", toEmail))
	return nil
}

func buildConfirmationBody(link string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Welcome!</h2>
    <p>Please confirm your registration by clicking the link below:</p>
    <p><a href="%s">Confirm Registration</a></p>
  </div>
</body>
</html>`, link)
}
