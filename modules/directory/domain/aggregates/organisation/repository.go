package organisation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("organisation not found")
	ErrSlugTaken = errors.New("organisation slug already exists")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Organisation, error)
	Create(ctx context.Context, o *Organisation) (*Organisation, error)
	Update(ctx context.Context, o *Organisation) (*Organisation, error)
	ReplaceSocialMedias(ctx context.Context, id uuid.UUID, items []SocialMedia) error
}
