// Package mail delivers HTML notifications over SMTP.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/openclear/clearing-backend/internal/infrastructure/config"
)

// Notifier implements runner.Notifier over plain SMTP.
type Notifier struct {
	addr   string
	sender string
	auth   smtp.Auth
}

// NewNotifier creates an SMTP notifier from the notification settings.
func NewNotifier(cfg config.NotificationsConfig) *Notifier {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &Notifier{
		addr:   fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		sender: cfg.Sender,
		auth:   auth,
	}
}

// Send delivers one HTML message to the recipient.
func (n *Notifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.sender)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(n.addr, n.auth, n.sender, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
