package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
)

// SMTPConfig points at a plain SMTP relay. Auth is optional; local
// relays and test sinks like mailpit accept unauthenticated mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// BaseURL is the public frontend origin used to build redemption links.
	BaseURL string
}

type SMTPMailer struct {
	cfg  SMTPConfig
	addr string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:  cfg,
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
}

func (m *SMTPMailer) SendInvitation(ctx context.Context, inv domain.Invitation, token, invitedByName string) error {
	link := InvitationLink(m.cfg.BaseURL, token)

	msg := buildMessage(m.cfg.From, inv.Email, invitationSubject(invitedByName), invitationBody(inv, link, invitedByName))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	// net/smtp has no context plumbing; honour cancellation up front at least.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := smtp.SendMail(m.addr, auth, m.cfg.From, []string{inv.Email}, msg); err != nil {
		return fmt.Errorf("send invitation mail: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
