package updaterequest

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Filter narrows List results. Zero-valued fields are ignored.
type Filter struct {
	Type        Type
	PendingOnly bool
	UserID      *uuid.UUID
	Limit       int
	Offset      int
}

type Repository interface {
	Insert(ctx context.Context, u *UpdateRequest) (*UpdateRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UpdateRequest, error)
	// ListPendingForTarget returns the other pending requests against the
	// same existing entity, locked for update so conflict pruning cannot
	// race a concurrent creation.
	ListPendingForTarget(ctx context.Context, t Type, targetID, excludeID uuid.UUID) ([]*UpdateRequest, error)
	ReplaceData(ctx context.Context, id uuid.UUID, data json.RawMessage) error
	// Approve stamps approved_at and the actioning user, and records the
	// target entity id (set during apply for new-entity requests).
	Approve(ctx context.Context, id, actioningUserID, updateableID uuid.UUID) error
	// Reject soft-deletes a pending request, keeping the row for audit.
	Reject(ctx context.Context, id uuid.UUID, actioningUserID *uuid.UUID, message *string) error
	// SoftDelete removes a pending request without an actioning user, used
	// when conflict resolution empties a sibling.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter) ([]*UpdateRequest, error)
}
