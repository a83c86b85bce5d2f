package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/stretchr/testify/require"
)

func TestInvitationLinkEscapesToken(t *testing.T) {
	link := InvitationLink("https://app.example.com", "abc+/=123")
	require.Equal(t, "https://app.example.com/signup?invite=abc%2B%2F%3D123", link)
}

func TestInvitationBodyMentionsLinkAndExpiry(t *testing.T) {
	inv := domain.Invitation{
		Email:     "bob@example.com",
		Role:      domain.RoleEmployee,
		ExpiresAt: time.Date(2026, time.September, 7, 15, 4, 0, 0, time.UTC),
	}
	link := InvitationLink("https://app.example.com", "tok")

	body := invitationBody(inv, link, "Ada Admin")
	require.Contains(t, body, link)
	require.Contains(t, body, "Ada Admin invited you")
	require.Contains(t, body, "an employee")
	require.Contains(t, body, "7 September 2026")

	// Anonymous fallback when the inviter has no name.
	body = invitationBody(inv, link, "")
	require.Contains(t, body, "A teammate invited you")
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(buildMessage("from@example.com", "to@example.com", "Hello", "Body text"))

	require.True(t, strings.HasPrefix(msg, "From: from@example.com\r\n"))
	require.Contains(t, msg, "To: to@example.com\r\n")
	require.Contains(t, msg, "Subject: Hello\r\n")
	require.Contains(t, msg, "\r\n\r\nBody text")
}

func TestInvitationSubject(t *testing.T) {
	require.Equal(t, "Ada invited you to AgentDesk", invitationSubject("Ada"))
	require.Equal(t, "You have been invited to AgentDesk", invitationSubject(""))
}
