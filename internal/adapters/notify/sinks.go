package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
)

// InAppSink stores notifications for the in-app inbox.
type InAppSink struct {
	repo portsrepo.NotificationWriter
}

func NewInAppSink(repo portsrepo.NotificationWriter) *InAppSink {
	return &InAppSink{repo: repo}
}

func (s *InAppSink) Name() string { return "in_app" }

func (s *InAppSink) Deliver(ctx context.Context, n domain.Notification) error {
	return s.repo.SaveNotification(ctx, n)
}

// EventRecorder is satisfied by utils.PosthogClientWrapper.
type EventRecorder interface {
	Enqueue(distinctID string, event string, properties map[string]any)
}

// AnalyticsSink records a "notification_sent" event per delivered notification.
type AnalyticsSink struct {
	events EventRecorder
}

func NewAnalyticsSink(events EventRecorder) *AnalyticsSink {
	return &AnalyticsSink{events: events}
}

func (s *AnalyticsSink) Name() string { return "analytics" }

func (s *AnalyticsSink) Deliver(ctx context.Context, n domain.Notification) error {
	s.events.Enqueue(n.UserID, "notification_sent", map[string]any{
		"kind":       string(n.Kind),
		"expense_id": n.ExpenseID,
	})
	return nil
}

// SMTPConfig holds the mail relay settings of EmailSink.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// LinkBaseURL, when set, appends a link to the expense to each mail.
	LinkBaseURL string
}

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSink mails notifications to the recipient's address.
type EmailSink struct {
	cfg      SMTPConfig
	users    portsrepo.UserReader
	sendMail SendMailFunc
}

// NewEmailSink creates a sink sending through cfg. sendMail defaults to smtp.SendMail.
func NewEmailSink(cfg SMTPConfig, users portsrepo.UserReader, sendMail SendMailFunc) *EmailSink {
	if sendMail == nil {
		sendMail = smtp.SendMail
	}
	return &EmailSink{cfg: cfg, users: users, sendMail: sendMail}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(ctx context.Context, n domain.Notification) error {
	user, err := s.users.FindUserByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient %s: %w", n.UserID, err)
	}
	if user.Email == "" {
		return nil
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	return s.sendMail(addr, auth, s.cfg.From, []string{user.Email}, buildMessage(s.cfg, user.Email, n))
}

func buildMessage(cfg SMTPConfig, to string, n domain.Notification) []byte {
	var b strings.Builder
	b.WriteString("From: " + cfg.From + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(n.Title) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(n.Message)
	b.WriteString("\r\n")
	if cfg.LinkBaseURL != "" && n.ExpenseID != "" {
		b.WriteString("\r\n" + strings.TrimRight(cfg.LinkBaseURL, "/") + "/expenses/" + n.ExpenseID + "\r\n")
	}
	return []byte(b.String())
}

// sanitizeHeader strips line breaks so a title cannot inject headers.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
