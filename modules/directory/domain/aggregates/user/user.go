package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("user not found")

type Role string

const (
	RoleMember            Role = "member"
	RoleOrganisationAdmin Role = "organisation_admin"
	RoleGlobalAdmin       Role = "global_admin"
	RoleSuperAdmin        Role = "super_admin"
)

var roleRank = map[Role]int{
	RoleMember:            0,
	RoleOrganisationAdmin: 1,
	RoleGlobalAdmin:       2,
	RoleSuperAdmin:        3,
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsSuperAdmin reports whether the user holds the highest privilege level.
// Proposals from super admins are applied immediately instead of queueing
// for moderation.
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

func (u *User) IsAtLeast(role Role) bool {
	return roleRank[u.Role] >= roleRank[role]
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, u *User) (*User, error)
	GlobalAdminEmails(ctx context.Context) ([]string, error)
}
