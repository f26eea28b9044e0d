package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/user"
	"github.com/openplaces/directory-sdk/pkg/composables"
)

type UserRepository struct{}

func NewUserRepository() user.Repository {
	return &UserRepository{}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var u user.User
	if err := tx.QueryRow(ctx, `
	SELECT id, name, email, role, created_at, updated_at
	FROM users
	WHERE id = $1
	`, pgUUID(id)).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "get user")
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
	INSERT INTO users (name, email, role)
	VALUES ($1, $2, $3)
	RETURNING id, created_at, updated_at
	`, u.Name, u.Email, string(u.Role)).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, gerrors.Wrap(err, "create user")
	}
	return u, nil
}

func (r *UserRepository) GlobalAdminEmails(ctx context.Context) ([]string, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
	SELECT email
	FROM users
	WHERE role IN ($1, $2)
	ORDER BY email
	`, string(user.RoleGlobalAdmin), string(user.RoleSuperAdmin))
	if err != nil {
		return nil, gerrors.Wrap(err, "list global admin emails")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}
