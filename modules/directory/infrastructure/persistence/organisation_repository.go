package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/organisation"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/taxonomy"
	"github.com/openplaces/directory-sdk/pkg/composables"
)

type OrganisationRepository struct{}

func NewOrganisationRepository() organisation.Repository {
	return &OrganisationRepository{}
}

func (r *OrganisationRepository) GetByID(ctx context.Context, id uuid.UUID) (*organisation.Organisation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var (
		o      organisation.Organisation
		url    pgtype.Text
		email  pgtype.Text
		phone  pgtype.Text
		logoID pgtype.UUID
	)
	if err := tx.QueryRow(ctx, `
	SELECT id, slug, name, description, url, email, phone, logo_file_id, created_at, updated_at
	FROM organisations
	WHERE id = $1
	`, pgUUID(id)).Scan(
		&o.ID, &o.Slug, &o.Name, &o.Description, &url, &email, &phone, &logoID, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, organisation.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "get organisation")
	}
	o.URL = asNullableText(url)
	o.Email = asNullableText(email)
	o.Phone = asNullableText(phone)
	o.LogoFileID = asNullableUUID(logoID)

	if o.SocialMedias, err = r.socialMedias(ctx, tx, id); err != nil {
		return nil, err
	}
	if o.TaxonomyIDs, err = taxonomyIDs(ctx, tx, taxonomy.KindOrganisation, id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrganisationRepository) Create(ctx context.Context, o *organisation.Organisation) (*organisation.Organisation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
	INSERT INTO organisations (slug, name, description, url, email, phone, logo_file_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at
	`,
		o.Slug, o.Name, o.Description,
		pgNullableText(o.URL), pgNullableText(o.Email), pgNullableText(o.Phone),
		pgNullableUUID(o.LogoFileID),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, organisation.ErrSlugTaken
		}
		return nil, gerrors.Wrap(err, "create organisation")
	}

	if err := r.ReplaceSocialMedias(ctx, o.ID, o.SocialMedias); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrganisationRepository) Update(ctx context.Context, o *organisation.Organisation) (*organisation.Organisation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
	UPDATE organisations
	   SET slug = $2,
	       name = $3,
	       description = $4,
	       url = $5,
	       email = $6,
	       phone = $7,
	       logo_file_id = $8,
	       updated_at = now()
	 WHERE id = $1
	RETURNING updated_at
	`,
		pgUUID(o.ID),
		o.Slug, o.Name, o.Description,
		pgNullableText(o.URL), pgNullableText(o.Email), pgNullableText(o.Phone),
		pgNullableUUID(o.LogoFileID),
	).Scan(&o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, organisation.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, organisation.ErrSlugTaken
		}
		return nil, gerrors.Wrap(err, "update organisation")
	}
	return o, nil
}

func (r *OrganisationRepository) ReplaceSocialMedias(ctx context.Context, id uuid.UUID, items []organisation.SocialMedia) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM organisation_social_medias WHERE organisation_id = $1`, pgUUID(id)); err != nil {
		return gerrors.Wrap(err, "delete organisation social medias")
	}
	for i, item := range items {
		if _, err := tx.Exec(ctx, `
		INSERT INTO organisation_social_medias (organisation_id, type, url, display_order)
		VALUES ($1, $2, $3, $4)
		`, pgUUID(id), item.Type, item.URL, i); err != nil {
			return gerrors.Wrap(err, "insert organisation social media")
		}
	}
	return nil
}

func (r *OrganisationRepository) socialMedias(ctx context.Context, tx composables.Tx, id uuid.UUID) ([]organisation.SocialMedia, error) {
	rows, err := tx.Query(ctx, `
	SELECT type, url
	FROM organisation_social_medias
	WHERE organisation_id = $1
	ORDER BY display_order
	`, pgUUID(id))
	if err != nil {
		return nil, gerrors.Wrap(err, "list organisation social medias")
	}
	defer rows.Close()

	var out []organisation.SocialMedia
	for rows.Next() {
		var sm organisation.SocialMedia
		if err := rows.Scan(&sm.Type, &sm.URL); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func taxonomyIDs(ctx context.Context, tx composables.Tx, kind taxonomy.EntityKind, entityID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `
	SELECT taxonomy_id
	FROM entity_taxonomies
	WHERE entity_kind = $1 AND entity_id = $2
	ORDER BY taxonomy_id
	`, string(kind), pgUUID(entityID))
	if err != nil {
		return nil, gerrors.Wrap(err, "list entity taxonomies")
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
