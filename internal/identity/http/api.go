package http

import (
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
)

// ErrorResponse is the uniform error body for every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// UserResponse is the public view of an account. The password hash never
// leaves the service and presence is precomputed server-side.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u domain.User, now time.Time) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		AvatarURL: u.AvatarURL,
		Active:    domain.ActiveAt(u.LastActiveAt, now),
		CreatedAt: u.CreatedAt,
	}
}

// CredentialsResponse carries the access token; the refresh token rides
// in its cookie, never in the body.
type CredentialsResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	LandingPath string       `json:"landing_path"`
}

func newCredentialsResponse(u domain.User, creds domain.Credentials, landing string) CredentialsResponse {
	return CredentialsResponse{
		User:        newUserResponse(u, time.Now()),
		AccessToken: creds.AccessToken,
		TokenType:   creds.TokenType,
		ExpiresIn:   creds.ExpiresIn,
		LandingPath: landing,
	}
}

type SignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	InviteToken string `json:"invite_token"`
}

type BootstrapRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type InvitationResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func newInvitationResponse(inv domain.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		Role:      string(inv.Role),
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}

type PendingCountResponse struct {
	Pending int `json:"pending"`
}

// HealthResponse is the body for the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}
