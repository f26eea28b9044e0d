package event

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("event not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Create(ctx context.Context, e *Event) (*Event, error)
	Update(ctx context.Context, e *Event) (*Event, error)
}
