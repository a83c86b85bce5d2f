// Package federation abstracts external identity providers used for
// federated sign-in. A Provider drives the standard authorization-code
// flow: redirect the browser, trade the returned code for a token, and
// fetch a normalized profile with it.
package federation

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrExchangeFailed indicates the provider rejected the authorization code.
	ErrExchangeFailed = errors.New("federation: code exchange failed")

	// ErrProfileFailed indicates the profile fetch was rejected or unreadable.
	ErrProfileFailed = errors.New("federation: profile fetch failed")

	// ErrEmailMissing indicates the provider returned a profile without a
	// usable email address, which this system requires as the identity key.
	ErrEmailMissing = errors.New("federation: profile has no verified email")
)

type Provider interface {
	// Name returns the provider identifier, e.g. "google".
	Name() string

	// AuthCodeURL builds the URL the browser is redirected to for consent.
	// The state value is round-tripped for CSRF protection.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (*Token, error)

	// UserInfo fetches the user's normalized profile using the token.
	UserInfo(ctx context.Context, token *Token) (*Profile, error)
}

// Token is a provider access token from a completed code exchange.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Profile is the normalized identity a provider reports for a user.
type Profile struct {
	Subject       string // provider-scoped stable user id
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

// ProviderError carries the provider's own error detail for logging while
// the sentinel in Err drives handler dispatch.
type ProviderError struct {
	Provider  string
	Operation string
	Status    int
	Detail    string
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Provider, e.Operation, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Provider, e.Operation, e.Status)
}

func (e *ProviderError) Unwrap() error { return e.Err }
