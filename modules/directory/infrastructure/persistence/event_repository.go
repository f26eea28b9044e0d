package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/event"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/taxonomy"
	"github.com/openplaces/directory-sdk/pkg/composables"
)

type EventRepository struct{}

func NewEventRepository() event.Repository {
	return &EventRepository{}
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var (
		e              event.Event
		feesText       pgtype.Text
		feesURL        pgtype.Text
		organiserName  pgtype.Text
		organiserPhone pgtype.Text
		organiserEmail pgtype.Text
		organiserURL   pgtype.Text
		bookingTitle   pgtype.Text
		bookingSummary pgtype.Text
		bookingURL     pgtype.Text
		bookingCTA     pgtype.Text
		locationID     pgtype.UUID
		imageID        pgtype.UUID
	)
	if err := tx.QueryRow(ctx, `
	SELECT id, organisation_id, title, intro, description,
	       start_date, end_date, start_time, end_time,
	       is_free, fees_text, fees_url,
	       organiser_name, organiser_phone, organiser_email, organiser_url,
	       booking_title, booking_summary, booking_url, booking_cta,
	       homepage, is_virtual, location_id, image_file_id,
	       created_at, updated_at
	FROM organisation_events
	WHERE id = $1
	`, pgUUID(id)).Scan(
		&e.ID, &e.OrganisationID, &e.Title, &e.Intro, &e.Description,
		&e.StartDate, &e.EndDate, &e.StartTime, &e.EndTime,
		&e.IsFree, &feesText, &feesURL,
		&organiserName, &organiserPhone, &organiserEmail, &organiserURL,
		&bookingTitle, &bookingSummary, &bookingURL, &bookingCTA,
		&e.Homepage, &e.IsVirtual, &locationID, &imageID,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "get event")
	}
	e.FeesText = asNullableText(feesText)
	e.FeesURL = asNullableText(feesURL)
	e.OrganiserName = asNullableText(organiserName)
	e.OrganiserPhone = asNullableText(organiserPhone)
	e.OrganiserEmail = asNullableText(organiserEmail)
	e.OrganiserURL = asNullableText(organiserURL)
	e.BookingTitle = asNullableText(bookingTitle)
	e.BookingSummary = asNullableText(bookingSummary)
	e.BookingURL = asNullableText(bookingURL)
	e.BookingCTA = asNullableText(bookingCTA)
	e.LocationID = asNullableUUID(locationID)
	e.ImageFileID = asNullableUUID(imageID)

	if e.TaxonomyIDs, err = taxonomyIDs(ctx, tx, taxonomy.KindEvent, id); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepository) Create(ctx context.Context, e *event.Event) (*event.Event, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
	INSERT INTO organisation_events (
		organisation_id, title, intro, description,
		start_date, end_date, start_time, end_time,
		is_free, fees_text, fees_url,
		organiser_name, organiser_phone, organiser_email, organiser_url,
		booking_title, booking_summary, booking_url, booking_cta,
		homepage, is_virtual, location_id, image_file_id
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
	RETURNING id, created_at, updated_at
	`,
		pgUUID(e.OrganisationID), e.Title, e.Intro, e.Description,
		e.StartDate, e.EndDate, e.StartTime, e.EndTime,
		e.IsFree, pgNullableText(e.FeesText), pgNullableText(e.FeesURL),
		pgNullableText(e.OrganiserName), pgNullableText(e.OrganiserPhone),
		pgNullableText(e.OrganiserEmail), pgNullableText(e.OrganiserURL),
		pgNullableText(e.BookingTitle), pgNullableText(e.BookingSummary),
		pgNullableText(e.BookingURL), pgNullableText(e.BookingCTA),
		e.Homepage, e.IsVirtual, pgNullableUUID(e.LocationID), pgNullableUUID(e.ImageFileID),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, gerrors.Wrap(err, "create event")
	}
	return e, nil
}

func (r *EventRepository) Update(ctx context.Context, e *event.Event) (*event.Event, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
	UPDATE organisation_events
	   SET title = $2,
	       intro = $3,
	       description = $4,
	       start_date = $5,
	       end_date = $6,
	       start_time = $7,
	       end_time = $8,
	       is_free = $9,
	       fees_text = $10,
	       fees_url = $11,
	       organiser_name = $12,
	       organiser_phone = $13,
	       organiser_email = $14,
	       organiser_url = $15,
	       booking_title = $16,
	       booking_summary = $17,
	       booking_url = $18,
	       booking_cta = $19,
	       homepage = $20,
	       is_virtual = $21,
	       location_id = $22,
	       image_file_id = $23,
	       updated_at = now()
	 WHERE id = $1
	RETURNING updated_at
	`,
		pgUUID(e.ID),
		e.Title, e.Intro, e.Description,
		e.StartDate, e.EndDate, e.StartTime, e.EndTime,
		e.IsFree, pgNullableText(e.FeesText), pgNullableText(e.FeesURL),
		pgNullableText(e.OrganiserName), pgNullableText(e.OrganiserPhone),
		pgNullableText(e.OrganiserEmail), pgNullableText(e.OrganiserURL),
		pgNullableText(e.BookingTitle), pgNullableText(e.BookingSummary),
		pgNullableText(e.BookingURL), pgNullableText(e.BookingCTA),
		e.Homepage, e.IsVirtual, pgNullableUUID(e.LocationID), pgNullableUUID(e.ImageFileID),
	).Scan(&e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "update event")
	}
	return e, nil
}
