package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, name, email, password_hash, account_kind, role, avatar_url, last_active_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var avatar sql.NullString
	var lastActive sql.NullTime

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.AccountKind,
		&u.Role,
		&avatar,
		&lastActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.AvatarURL = mapNullStringPtr(avatar)
	u.LastActiveAt = mapNullTimePtr(lastActive)
	return u, nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, account_kind, role, avatar_url, last_active_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.AccountKind,
		u.Role,
		mapOptionalString(u.AvatarURL),
		optionalTime(u.LastActiveAt),
		ts,
		ts,
	)
	return mapConstraint(err)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`,
		avatarURL, now(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateAccountKind(ctx context.Context, userID string, kind domain.AccountKind) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET account_kind = ?, updated_at = ? WHERE id = ?`,
		kind, now(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetLastActive(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_active_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), now(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) ClearLastActive(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_active_at = NULL, updated_at = ? WHERE id = ?`,
		now(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
