// Package mail delivers transactional email. The only message this
// service sends today is the invitation email with its redemption link.
package mail

import (
	"context"
	"fmt"
	"net/url"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
)

type Mailer interface {
	// SendInvitation delivers the invitation email carrying the one-time
	// redemption link. The raw token is only ever handed to the mailer,
	// never persisted.
	SendInvitation(ctx context.Context, inv domain.Invitation, token string, invitedByName string) error
}

// InvitationLink builds the signup URL the invitee follows. The token
// travels as a query parameter so the frontend can pass it straight to
// the verify endpoint.
func InvitationLink(baseURL, token string) string {
	return fmt.Sprintf("%s/signup?invite=%s", baseURL, url.QueryEscape(token))
}

func invitationSubject(invitedByName string) string {
	if invitedByName == "" {
		return "You have been invited to AgentDesk"
	}
	return fmt.Sprintf("%s invited you to AgentDesk", invitedByName)
}

func invitationBody(inv domain.Invitation, link, invitedByName string) string {
	who := invitedByName
	if who == "" {
		who = "A teammate"
	}
	return fmt.Sprintf(
		"Hi,\r\n\r\n"+
			"%s invited you to join their AgentDesk workspace as %s.\r\n\r\n"+
			"Accept the invitation by creating your account here:\r\n\r\n"+
			"  %s\r\n\r\n"+
			"The link is valid until %s and can be used once.\r\n\r\n"+
			"If you were not expecting this, you can ignore this email.\r\n",
		who,
		articleFor(inv.Role),
		link,
		inv.ExpiresAt.Format("Monday, 2 January 2006 15:04 MST"),
	)
}

func articleFor(role domain.Role) string {
	if role == domain.RoleAdmin {
		return "an admin"
	}
	return "an employee"
}
