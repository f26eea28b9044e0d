package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/file"
	"github.com/openplaces/directory-sdk/pkg/composables"
)

type FileRepository struct{}

func NewFileRepository() file.Repository {
	return &FileRepository{}
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*file.File, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var f file.File
	if err := tx.QueryRow(ctx, `
	SELECT id, filename, mime_type, pending_assignment, created_at, updated_at
	FROM files
	WHERE id = $1
	`, pgUUID(id)).Scan(&f.ID, &f.Filename, &f.MimeType, &f.PendingAssignment, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, file.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "get file")
	}
	return &f, nil
}

func (r *FileRepository) Create(ctx context.Context, f *file.File) (*file.File, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
	INSERT INTO files (filename, mime_type, pending_assignment)
	VALUES ($1, $2, $3)
	RETURNING id, created_at, updated_at
	`, f.Filename, f.MimeType, f.PendingAssignment).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, gerrors.Wrap(err, "create file")
	}
	return f, nil
}

func (r *FileRepository) MarkAssigned(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
	UPDATE files
	   SET pending_assignment = false,
	       updated_at = now()
	 WHERE id = $1
	`, pgUUID(id))
	if err != nil {
		return gerrors.Wrap(err, "mark file assigned")
	}
	if tag.RowsAffected() == 0 {
		return file.ErrNotFound
	}
	return nil
}

func (r *FileRepository) InsertResizedVersion(ctx context.Context, id uuid.UUID, maxDimension int) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
	INSERT INTO file_resized_versions (file_id, max_dimension)
	VALUES ($1, $2)
	ON CONFLICT (file_id, max_dimension) DO NOTHING
	`, pgUUID(id), maxDimension); err != nil {
		return gerrors.Wrap(err, "insert resized version")
	}
	return nil
}
