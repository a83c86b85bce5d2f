package service

import (
	"errors"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/pkg/jwtx"
)

var (
	ErrInvalidAccessToken  = errors.New("invalid_access_token")
	ErrExpiredAccessToken  = errors.New("expired_access_token")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
)

// TokenService mints and verifies the two JWT kinds. Access and refresh
// tokens share the signing key but carry distinct token_use claims, so a
// refresh token can never pass as an access token or vice versa.
type TokenService struct {
	Signer          jwtx.Signer
	AccessVerifier  jwtx.Verifier
	RefreshVerifier jwtx.Verifier
	Issuer          string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
}

// IssueCredentials mints the access/refresh pair for a user. The refresh
// token travels separately (cookie), so Credentials hides it from JSON.
func (s *TokenService) IssueCredentials(userID string, now time.Time) (domain.Credentials, error) {
	access, err := s.Signer.Sign(jwtx.NewClaims(userID, jwtx.TokenUseAccess, s.Issuer, s.AccessTTL, now))
	if err != nil {
		return domain.Credentials{}, err
	}

	refresh, err := s.Signer.Sign(jwtx.NewClaims(userID, jwtx.TokenUseRefresh, s.Issuer, s.RefreshTTL, now))
	if err != nil {
		return domain.Credentials{}, err
	}

	return domain.Credentials{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.AccessTTL.Seconds()),
		RefreshToken: refresh,
	}, nil
}

// VerifyAccess checks an access token and returns its subject. Expiry is
// reported distinctly so the transport layer can hint the client to refresh.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	claims, err := s.AccessVerifier.Verify(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return "", ErrExpiredAccessToken
		}
		return "", ErrInvalidAccessToken
	}
	return claims.Subject, nil
}

// VerifyRefresh checks a refresh token and returns its subject. All
// failures collapse into one sentinel; a refresh caller retries by
// logging in again either way.
func (s *TokenService) VerifyRefresh(token string) (string, error) {
	claims, err := s.RefreshVerifier.Verify(token)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	return claims.Subject, nil
}
