package services

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/taxonomy"
)

type TaxonomyService struct {
	repo taxonomy.Repository
}

func NewTaxonomyService(repo taxonomy.Repository) *TaxonomyService {
	return &TaxonomyService{repo: repo}
}

// Validate checks that every referenced taxonomy exists.
func (s *TaxonomyService) Validate(ctx context.Context, ids []uuid.UUID) error {
	missing, err := s.repo.MissingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return gerrors.Wrapf(taxonomy.ErrUnknownTaxonomies, "%d unknown", len(missing))
	}
	return nil
}

// Sync validates and replaces the taxonomy assignments for an entity.
func (s *TaxonomyService) Sync(ctx context.Context, kind taxonomy.EntityKind, entityID uuid.UUID, ids []uuid.UUID) error {
	if err := s.Validate(ctx, ids); err != nil {
		return err
	}
	return s.repo.SyncRelationships(ctx, kind, entityID, ids)
}

func (s *TaxonomyService) ListForEntity(ctx context.Context, kind taxonomy.EntityKind, entityID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.ListForEntity(ctx, kind, entityID)
}
