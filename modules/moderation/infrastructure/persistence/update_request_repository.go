package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
	"github.com/openplaces/directory-sdk/pkg/composables"
)

const updateRequestColumns = `
	id, updateable_type, updateable_id, user_id, actioning_user_id,
	data, rejection_message, approved_at, deleted_at, created_at, updated_at`

type UpdateRequestRepository struct{}

func NewUpdateRequestRepository() updaterequest.Repository {
	return &UpdateRequestRepository{}
}

func (r *UpdateRequestRepository) Insert(ctx context.Context, u *updaterequest.UpdateRequest) (*updaterequest.UpdateRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
	INSERT INTO update_requests (
		updateable_type, updateable_id, user_id, actioning_user_id,
		data, approved_at
	)
	VALUES ($1, $2, $3, $4, $5::jsonb, $6)
	RETURNING id, created_at, updated_at
	`,
		string(u.Type), pgNullableUUID(u.UpdateableID), pgUUID(u.UserID),
		pgNullableUUID(u.ActioningUserID), []byte(u.Data), u.ApprovedAt,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, gerrors.Wrap(err, "insert update request")
	}
	return u, nil
}

func (r *UpdateRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*updaterequest.UpdateRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
	SELECT `+updateRequestColumns+`
	FROM update_requests
	WHERE id = $1
	`, pgUUID(id))
	u, err := scanUpdateRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, updaterequest.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "get update request")
	}
	return u, nil
}

func (r *UpdateRequestRepository) ListPendingForTarget(ctx context.Context, t updaterequest.Type, targetID, excludeID uuid.UUID) ([]*updaterequest.UpdateRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
	SELECT `+updateRequestColumns+`
	FROM update_requests
	WHERE updateable_type = $1
	  AND updateable_id = $2
	  AND id <> $3
	  AND approved_at IS NULL
	  AND deleted_at IS NULL
	ORDER BY created_at
	FOR UPDATE
	`, string(t), pgUUID(targetID), pgUUID(excludeID))
	if err != nil {
		return nil, gerrors.Wrap(err, "list pending update requests")
	}
	defer rows.Close()

	return collectUpdateRequests(rows)
}

func (r *UpdateRequestRepository) ReplaceData(ctx context.Context, id uuid.UUID, data json.RawMessage) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
	UPDATE update_requests
	   SET data = $2::jsonb,
	       updated_at = now()
	 WHERE id = $1
	`, pgUUID(id), []byte(data))
	if err != nil {
		return gerrors.Wrap(err, "replace update request data")
	}
	if tag.RowsAffected() == 0 {
		return updaterequest.ErrNotFound
	}
	return nil
}

func (r *UpdateRequestRepository) Approve(ctx context.Context, id, actioningUserID, updateableID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
	UPDATE update_requests
	   SET approved_at = now(),
	       actioning_user_id = $2,
	       updateable_id = $3,
	       updated_at = now()
	 WHERE id = $1
	   AND approved_at IS NULL
	   AND deleted_at IS NULL
	`, pgUUID(id), pgUUID(actioningUserID), pgUUID(updateableID))
	if err != nil {
		return gerrors.Wrap(err, "approve update request")
	}
	if tag.RowsAffected() == 0 {
		return updaterequest.ErrNotPending
	}
	return nil
}

func (r *UpdateRequestRepository) Reject(ctx context.Context, id uuid.UUID, actioningUserID *uuid.UUID, message *string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
	UPDATE update_requests
	   SET deleted_at = now(),
	       actioning_user_id = $2,
	       rejection_message = $3,
	       updated_at = now()
	 WHERE id = $1
	   AND approved_at IS NULL
	   AND deleted_at IS NULL
	`, pgUUID(id), pgNullableUUID(actioningUserID), pgNullableText(message))
	if err != nil {
		return gerrors.Wrap(err, "reject update request")
	}
	if tag.RowsAffected() == 0 {
		return updaterequest.ErrNotPending
	}
	return nil
}

func (r *UpdateRequestRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
	UPDATE update_requests
	   SET deleted_at = now(),
	       updated_at = now()
	 WHERE id = $1
	   AND approved_at IS NULL
	   AND deleted_at IS NULL
	`, pgUUID(id))
	if err != nil {
		return gerrors.Wrap(err, "soft delete update request")
	}
	if tag.RowsAffected() == 0 {
		return updaterequest.ErrNotPending
	}
	return nil
}

func (r *UpdateRequestRepository) List(ctx context.Context, f updaterequest.Filter) ([]*updaterequest.UpdateRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT ` + updateRequestColumns + `
	FROM update_requests
	WHERE deleted_at IS NULL`
	var args []any
	if f.Type != "" {
		args = append(args, string(f.Type))
		query += fmt.Sprintf(" AND updateable_type = $%d", len(args))
	}
	if f.PendingOnly {
		query += " AND approved_at IS NULL"
	}
	if f.UserID != nil {
		args = append(args, pgUUID(*f.UserID))
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "list update requests")
	}
	defer rows.Close()

	return collectUpdateRequests(rows)
}

func scanUpdateRequest(row pgx.Row) (*updaterequest.UpdateRequest, error) {
	var (
		u            updaterequest.UpdateRequest
		typ          string
		updateableID pgtype.UUID
		actioningID  pgtype.UUID
		data         []byte
		rejection    pgtype.Text
		approvedAt   pgtype.Timestamptz
		deletedAt    pgtype.Timestamptz
	)
	if err := row.Scan(
		&u.ID, &typ, &updateableID, &u.UserID, &actioningID,
		&data, &rejection, &approvedAt, &deletedAt, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Type = updaterequest.Type(typ)
	u.UpdateableID = asNullableUUID(updateableID)
	u.ActioningUserID = asNullableUUID(actioningID)
	u.Data = json.RawMessage(data)
	u.RejectionMessage = asNullableText(rejection)
	u.ApprovedAt = asNullableTime(approvedAt)
	u.DeletedAt = asNullableTime(deletedAt)
	return &u, nil
}

func collectUpdateRequests(rows pgx.Rows) ([]*updaterequest.UpdateRequest, error) {
	var out []*updaterequest.UpdateRequest
	for rows.Next() {
		u, err := scanUpdateRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
