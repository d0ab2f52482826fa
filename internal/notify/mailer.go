// internal/notify/mailer.go
package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/cassidycr/accildatabase/internal/models"
)

// Notifier receives the structured record the core emits after a session is
// created. Delivery failure never rolls back the creation; callers log the
// returned error and move on.
type Notifier interface {
	SessionRequested(s *models.Session) error
}

// SMTPConfig holds mail delivery settings. CampusEmails routes the request
// notice to the owning campus library; DefaultEmail catches everything else,
// including non-In-Person requests with no campus.
type SMTPConfig struct {
	Host         string            `toml:"host"`
	Port         int               `toml:"port"`
	Username     string            `toml:"username"`
	Password     string            `toml:"password"`
	From         string            `toml:"from"`
	DefaultEmail string            `toml:"default_email"`
	CampusEmails map[string]string `toml:"campus_emails"`
}

type Mailer struct {
	config SMTPConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(config SMTPConfig) *Mailer {
	return &Mailer{
		config: config,
		send:   smtp.SendMail,
	}
}

func (m *Mailer) SessionRequested(s *models.Session) error {
	recipient := m.config.DefaultEmail
	if addr, ok := m.config.CampusEmails[s.Campus]; ok {
		recipient = addr
	}

	subject := fmt.Sprintf("New Library Instruction Request - %s", s.Campus)
	body := fmt.Sprintf(`New Instruction Session Requested:

Name: %s %s
Email: %s
Campus: %s
Type: %s
Requested Dates: %s or %s
Course: %s-%s
Requested SLOs: %s
Requested Librarian: %s

Please review this request in the system.`,
		s.First, s.Last,
		s.Email,
		s.Campus,
		s.Type,
		s.Date1, s.Date2,
		s.CourseCode, s.CourseNumber,
		strings.Join(s.SLOs, ", "),
		s.Librarian,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.config.From, recipient, subject, body)

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	if err := m.send(addr, auth, m.config.From, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send request notification: %w", err)
	}
	return nil
}
