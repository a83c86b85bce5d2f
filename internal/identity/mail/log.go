package mail

import (
	"context"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// LogMailer writes invitation links to the log instead of sending mail.
// It is the development default so the flow works without a relay.
type LogMailer struct {
	BaseURL string
}

func NewLogMailer(baseURL string) *LogMailer {
	return &LogMailer{BaseURL: baseURL}
}

func (m *LogMailer) SendInvitation(ctx context.Context, inv domain.Invitation, token, invitedByName string) error {
	slogx.FromContext(ctx).Info("invitation mail (log only)",
		"to", inv.Email,
		"role", inv.Role,
		"invited_by", invitedByName,
		"link", InvitationLink(m.BaseURL, token),
		"expires_at", inv.ExpiresAt,
	)
	return nil
}
