package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSAVerifier validates JWTs signed using EdDSA (Ed25519).
type EdDSAVerifier struct {
	keys   *KeySet
	issuer string
	use    string
}

// NewVerifierEdDSA creates a verifier using a KeySet of Ed25519 public keys.
// Tokens must carry the given issuer and token_use to verify.
func NewVerifierEdDSA(keys *KeySet, issuer, tokenUse string) *EdDSAVerifier {
	return &EdDSAVerifier{keys: keys, issuer: issuer, use: tokenUse}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *EdDSAVerifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		// Need the kid to know which key to use
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateTokenUse(v.use); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// mapParseError collapses golang-jwt's error wrapping into our sentinel
// kinds. Expiry must stay distinguishable from a bad signature.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, ErrUnknownKID):
		return ErrUnknownKID
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
