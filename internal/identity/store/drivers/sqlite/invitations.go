package sqlite

import (
	"context"
	"database/sql"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, email, role, token_hash, invited_by, status, used_by, expires_at, created_at, updated_at`

func scanInvitation(row interface{ Scan(...any) error }) (domain.Invitation, error) {
	var inv domain.Invitation
	var usedBy sql.NullString

	err := row.Scan(
		&inv.ID,
		&inv.Email,
		&inv.Role,
		&inv.TokenHash,
		&inv.InvitedBy,
		&inv.Status,
		&usedBy,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invitation{}, err
	}

	inv.UsedBy = mapNullString(usedBy)
	return inv, nil
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invitations (id, email, role, token_hash, invited_by, status, used_by, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.Email,
		inv.Role,
		inv.TokenHash,
		inv.InvitedBy,
		domain.InvitationPending,
		mapStringNull(inv.UsedBy),
		inv.ExpiresAt.UTC(),
		ts,
		ts,
	)
	return mapConstraint(err)
}

func (r *invitationsRepo) GetPendingByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE token_hash = ? AND status = ? AND expires_at > ?`,
		hash, domain.InvitationPending, now())

	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

// ConsumeInvitation is a single conditional UPDATE so that two concurrent
// redemptions of the same token cannot both succeed.
func (r *invitationsRepo) ConsumeInvitation(ctx context.Context, hash, usedByUserID string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE invitations
		 SET status = ?, used_by = ?, updated_at = ?
		 WHERE token_hash = ? AND status = ? AND expires_at > ?
		 RETURNING `+invitationColumns,
		domain.InvitationConsumed,
		usedByUserID,
		now(),
		hash,
		domain.InvitationPending,
		now(),
	)

	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invitations WHERE status = ? AND expires_at > ?`,
		domain.InvitationPending, now()).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *invitationsRepo) DeleteExpiredInvitations(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM invitations WHERE status = ? AND expires_at <= ?`,
		domain.InvitationPending, now())
	return err
}
