package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/ops-tools/tcmonitor/internal/config"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
	"github.com/ops-tools/tcmonitor/internal/pkg/metrics"
)

// Email delivers HTML messages to named mailboxes over SMTP
type Email struct {
	sender    string
	mailboxes map[string][]string
	order     []string
	send      func(m *gomail.Message) error
	logger    *logger.Logger
}

// NewEmail creates an email channel from the SMTP configuration.
func NewEmail(cfg config.EmailConfig, log *logger.Logger) *Email {
	dialer := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.Sender, cfg.Password)
	dialer.SSL = cfg.UseSSL

	e := &Email{
		sender:    cfg.Sender,
		mailboxes: make(map[string][]string, len(cfg.Mailboxes)),
		send: func(m *gomail.Message) error {
			return dialer.DialAndSend(m)
		},
		logger: log,
	}
	for _, box := range cfg.Mailboxes {
		e.mailboxes[box.Name] = box.Recipients
		e.order = append(e.order, box.Name)
	}
	return e
}

// Send delivers the HTML body to the named mailboxes, or all mailboxes when
// no names are given. Unknown names are skipped and produce no result
// entry. Each mailbox is attempted independently.
func (e *Email) Send(ctx context.Context, subject, htmlBody string, names ...string) map[string]bool {
	results := make(map[string]bool)
	for _, name := range e.targets(names) {
		err := e.sendOne(subject, htmlBody, e.mailboxes[name])
		ok := err == nil
		if err != nil {
			e.logger.WithFields(map[string]interface{}{
				"mailbox": name,
			}).ErrorWithErr(err, "Failed to send email")
		}
		results[name] = ok
		metrics.RecordDelivery("email", ok)
	}
	return results
}

func (e *Email) targets(names []string) []string {
	if len(names) == 0 {
		return e.order
	}
	var out []string
	for _, name := range names {
		if _, ok := e.mailboxes[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (e *Email) sendOne(subject, htmlBody string, recipients []string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.sender)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := e.send(m); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
