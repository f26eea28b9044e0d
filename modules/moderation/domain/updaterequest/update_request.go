package updaterequest

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("update request not found")
	ErrNotPending = errors.New("update request is not pending")
)

// UpdateRequest is a persisted proposal to change an existing entity or
// create a new one. Approval applies the payload and stamps approved_at;
// rejection stamps deleted_at. A request with neither stamp is pending.
type UpdateRequest struct {
	ID               uuid.UUID       `json:"id"`
	Type             Type            `json:"updateable_type"`
	UpdateableID     *uuid.UUID      `json:"updateable_id"`
	UserID           uuid.UUID       `json:"user_id"`
	ActioningUserID  *uuid.UUID      `json:"actioning_user_id"`
	Data             json.RawMessage `json:"data"`
	RejectionMessage *string         `json:"rejection_message"`
	ApprovedAt       *time.Time      `json:"approved_at"`
	DeletedAt        *time.Time      `json:"deleted_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (u *UpdateRequest) IsPending() bool {
	return u.ApprovedAt == nil && u.DeletedAt == nil
}

// IsExisting reports whether the request targets an entity that already
// exists. New-entity requests carry a nil UpdateableID until applied.
func (u *UpdateRequest) IsExisting() bool {
	return u.UpdateableID != nil
}

func (u *UpdateRequest) DataMap() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(u.Data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
