package jwtx

import "errors"

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// Error kinds. Callers care about the difference between "this token was
// never good" (ErrMalformed, ErrInvalidSig) and "this token was good but its
// time ran out" (ErrExpired) — the latter can drive a silent refresh.
var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrTokenUse    = errors.New("jwtx: wrong token use")
)
