package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short-lived access tokens bound the blast radius of
// theft; the refresh token trades that off for user convenience.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token use values for the token_use claim. A refresh token presented where
// an access token is expected must fail verification.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims is the claim set for both token variants. Deliberately minimal: the
// subject ID and the token_use discriminator, nothing else sensitive.
type Claims struct {
	jwt.RegisteredClaims

	// TokenUse discriminates access from refresh tokens.
	TokenUse string `json:"token_use,omitempty"`
}

// NewClaims builds minimally-correct claims for the given subject.
func NewClaims(subject, tokenUse, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		TokenUse: tokenUse,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateTokenUse checks the token_use discriminator.
func (c *Claims) ValidateTokenUse(expected string) error {
	if expected == "" {
		return nil
	}

	if c.TokenUse != expected {
		return ErrTokenUse
	}

	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
