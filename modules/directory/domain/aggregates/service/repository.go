package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("service not found")
	ErrSlugTaken = errors.New("service slug already exists")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	Create(ctx context.Context, s *Service) (*Service, error)
	Update(ctx context.Context, s *Service) (*Service, error)
	ReplaceUsefulInfos(ctx context.Context, id uuid.UUID, items []UsefulInfo) error
	ReplaceOfferings(ctx context.Context, id uuid.UUID, items []Offering) error
	ReplaceSocialMedias(ctx context.Context, id uuid.UUID, items []SocialMedia) error
	ReplaceGalleryItems(ctx context.Context, id uuid.UUID, items []GalleryItem) error
	ReplaceTags(ctx context.Context, id uuid.UUID, items []Tag) error
}
