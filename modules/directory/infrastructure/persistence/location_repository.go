package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/location"
	"github.com/openplaces/directory-sdk/pkg/composables"
)

type LocationRepository struct{}

func NewLocationRepository() location.Repository {
	return &LocationRepository{}
}

func (r *LocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*location.Location, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var (
		l     location.Location
		line2 pgtype.Text
	)
	if err := tx.QueryRow(ctx, `
	SELECT id, address_line_1, address_line_2, city, county, postcode, country,
	       has_wheelchair_access, has_induction_loop, created_at, updated_at
	FROM locations
	WHERE id = $1
	`, pgUUID(id)).Scan(
		&l.ID, &l.AddressLine1, &line2, &l.City, &l.County, &l.Postcode, &l.Country,
		&l.HasWheelchairAccess, &l.HasInductionLoop, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, location.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "get location")
	}
	l.AddressLine2 = asNullableText(line2)
	return &l, nil
}

func (r *LocationRepository) Create(ctx context.Context, l *location.Location) (*location.Location, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
	INSERT INTO locations (
		address_line_1, address_line_2, city, county, postcode, country,
		has_wheelchair_access, has_induction_loop
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	RETURNING id, created_at, updated_at
	`,
		l.AddressLine1, pgNullableText(l.AddressLine2), l.City, l.County, l.Postcode, l.Country,
		l.HasWheelchairAccess, l.HasInductionLoop,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, gerrors.Wrap(err, "create location")
	}
	return l, nil
}
