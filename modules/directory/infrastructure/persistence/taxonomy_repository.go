package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/taxonomy"
	"github.com/openplaces/directory-sdk/pkg/composables"
)

type TaxonomyRepository struct{}

func NewTaxonomyRepository() taxonomy.Repository {
	return &TaxonomyRepository{}
}

func (r *TaxonomyRepository) MissingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
	SELECT candidate.id
	FROM unnest($1::uuid[]) AS candidate(id)
	LEFT JOIN taxonomies t ON t.id = candidate.id
	WHERE t.id IS NULL
	`, pgtype.FlatArray[uuid.UUID](ids))
	if err != nil {
		return nil, gerrors.Wrap(err, "check taxonomy ids")
	}
	defer rows.Close()

	var missing []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

func (r *TaxonomyRepository) SyncRelationships(ctx context.Context, kind taxonomy.EntityKind, entityID uuid.UUID, ids []uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
	DELETE FROM entity_taxonomies
	WHERE entity_kind = $1 AND entity_id = $2
	`, string(kind), pgUUID(entityID)); err != nil {
		return gerrors.Wrap(err, "delete entity taxonomies")
	}

	for _, id := range ids {
		if _, err := tx.Exec(ctx, `
		INSERT INTO entity_taxonomies (entity_kind, entity_id, taxonomy_id)
		VALUES ($1, $2, $3)
		`, string(kind), pgUUID(entityID), pgUUID(id)); err != nil {
			if isForeignKeyViolation(err) {
				return taxonomy.ErrUnknownTaxonomies
			}
			return gerrors.Wrap(err, "insert entity taxonomy")
		}
	}
	return nil
}

func (r *TaxonomyRepository) ListForEntity(ctx context.Context, kind taxonomy.EntityKind, entityID uuid.UUID) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	return taxonomyIDs(ctx, tx, kind, entityID)
}
