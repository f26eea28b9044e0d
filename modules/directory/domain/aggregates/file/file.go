package file

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("file not found")

type File struct {
	ID                uuid.UUID `json:"id"`
	Filename          string    `json:"filename"`
	MimeType          string    `json:"mime_type"`
	PendingAssignment bool      `json:"pending_assignment"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*File, error)
	Create(ctx context.Context, f *File) (*File, error)
	MarkAssigned(ctx context.Context, id uuid.UUID) error
	// InsertResizedVersion records a pre-generated cached dimension for an
	// image file.
	InsertResizedVersion(ctx context.Context, id uuid.UUID, maxDimension int) error
}
