package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/agentdeskhq/agentdesk/internal/identity/store"
)

// txStore is a transaction-scoped Store. Repositories run against the *sql.Tx
// so every operation joins the same transaction.
type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Users() store.Users             { return &usersRepo{db: t.tx} }
func (t *txStore) Invitations() store.Invitations { return &invitationsRepo{db: t.tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) ApplyMigrations() error {
	return errors.New("sqlite: migrations cannot run inside a transaction")
}

// Tx within a Tx is disallowed; sqlite has no nested transactions.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, errors.New("sqlite: nested transactions are not supported")
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return fn(t)
}

func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }
