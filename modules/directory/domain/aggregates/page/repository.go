package page

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("page not found")
	ErrSlugTaken = errors.New("page slug already exists")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Page, error)
	Create(ctx context.Context, p *Page) (*Page, error)
	Update(ctx context.Context, p *Page) (*Page, error)
}
