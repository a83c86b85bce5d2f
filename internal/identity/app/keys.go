package app

import (
	"fmt"
	"log/slog"

	"github.com/agentdeskhq/agentdesk/pkg/cryptox"
	"github.com/agentdeskhq/agentdesk/pkg/idx"
	"github.com/agentdeskhq/agentdesk/pkg/jwtx"
)

// initSigningKey generates the ephemeral Ed25519 signing key. The key
// lives only in memory: a restart invalidates outstanding tokens, which
// for short-lived access tokens costs users at most one re-login.
func initSigningKey(logger *slog.Logger) (jwtx.Signer, *jwtx.KeySet, error) {
	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, nil, fmt.Errorf("generate signing key: %w", err)
	}

	kid := idx.New().String()
	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	if err != nil {
		return nil, nil, fmt.Errorf("load signing key: %w", err)
	}
	if err := signer.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validate signing key: %w", err)
	}

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer.(*jwtx.EdDSASigner))

	logger.Info("ephemeral signing key generated", "kid", kid, "alg", signer.Alg())
	logger.Warn("tokens issued before this restart are now invalid")

	return signer, keys, nil
}
