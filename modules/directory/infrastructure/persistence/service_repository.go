package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/service"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/taxonomy"
	"github.com/openplaces/directory-sdk/pkg/composables"
)

type ServiceRepository struct{}

func NewServiceRepository() service.Repository {
	return &ServiceRepository{}
}

func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*service.Service, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var (
		s            service.Service
		waitTime     pgtype.Text
		feesText     pgtype.Text
		feesURL      pgtype.Text
		videoEmbed   pgtype.Text
		url          pgtype.Text
		contactName  pgtype.Text
		contactPhone pgtype.Text
		contactEmail pgtype.Text
		logoID       pgtype.UUID
	)
	if err := tx.QueryRow(ctx, `
	SELECT id, organisation_id, slug, name, type, status, intro, description,
	       wait_time, is_free, fees_text, fees_url, video_embed, url,
	       contact_name, contact_phone, contact_email, logo_file_id,
	       created_at, updated_at
	FROM services
	WHERE id = $1
	`, pgUUID(id)).Scan(
		&s.ID, &s.OrganisationID, &s.Slug, &s.Name, &s.Type, &s.Status, &s.Intro, &s.Description,
		&waitTime, &s.IsFree, &feesText, &feesURL, &videoEmbed, &url,
		&contactName, &contactPhone, &contactEmail, &logoID,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "get service")
	}
	s.WaitTime = asNullableText(waitTime)
	s.FeesText = asNullableText(feesText)
	s.FeesURL = asNullableText(feesURL)
	s.VideoEmbed = asNullableText(videoEmbed)
	s.URL = asNullableText(url)
	s.ContactName = asNullableText(contactName)
	s.ContactPhone = asNullableText(contactPhone)
	s.ContactEmail = asNullableText(contactEmail)
	s.LogoFileID = asNullableUUID(logoID)

	if err := r.loadChildren(ctx, tx, &s); err != nil {
		return nil, err
	}
	if s.TaxonomyIDs, err = taxonomyIDs(ctx, tx, taxonomy.KindService, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServiceRepository) Create(ctx context.Context, s *service.Service) (*service.Service, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
	INSERT INTO services (
		organisation_id, slug, name, type, status, intro, description,
		wait_time, is_free, fees_text, fees_url, video_embed, url,
		contact_name, contact_phone, contact_email, logo_file_id
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	RETURNING id, created_at, updated_at
	`,
		pgUUID(s.OrganisationID), s.Slug, s.Name, string(s.Type), string(s.Status), s.Intro, s.Description,
		pgNullableText(s.WaitTime), s.IsFree, pgNullableText(s.FeesText), pgNullableText(s.FeesURL),
		pgNullableText(s.VideoEmbed), pgNullableText(s.URL),
		pgNullableText(s.ContactName), pgNullableText(s.ContactPhone), pgNullableText(s.ContactEmail),
		pgNullableUUID(s.LogoFileID),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, service.ErrSlugTaken
		}
		return nil, gerrors.Wrap(err, "create service")
	}

	if err := r.replaceAllChildren(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ServiceRepository) Update(ctx context.Context, s *service.Service) (*service.Service, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
	UPDATE services
	   SET slug = $2,
	       name = $3,
	       type = $4,
	       status = $5,
	       intro = $6,
	       description = $7,
	       wait_time = $8,
	       is_free = $9,
	       fees_text = $10,
	       fees_url = $11,
	       video_embed = $12,
	       url = $13,
	       contact_name = $14,
	       contact_phone = $15,
	       contact_email = $16,
	       logo_file_id = $17,
	       updated_at = now()
	 WHERE id = $1
	RETURNING updated_at
	`,
		pgUUID(s.ID),
		s.Slug, s.Name, string(s.Type), string(s.Status), s.Intro, s.Description,
		pgNullableText(s.WaitTime), s.IsFree, pgNullableText(s.FeesText), pgNullableText(s.FeesURL),
		pgNullableText(s.VideoEmbed), pgNullableText(s.URL),
		pgNullableText(s.ContactName), pgNullableText(s.ContactPhone), pgNullableText(s.ContactEmail),
		pgNullableUUID(s.LogoFileID),
	).Scan(&s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, service.ErrSlugTaken
		}
		return nil, gerrors.Wrap(err, "update service")
	}
	return s, nil
}

func (r *ServiceRepository) replaceAllChildren(ctx context.Context, s *service.Service) error {
	if err := r.ReplaceUsefulInfos(ctx, s.ID, s.UsefulInfos); err != nil {
		return err
	}
	if err := r.ReplaceOfferings(ctx, s.ID, s.Offerings); err != nil {
		return err
	}
	if err := r.ReplaceSocialMedias(ctx, s.ID, s.SocialMedias); err != nil {
		return err
	}
	if err := r.ReplaceGalleryItems(ctx, s.ID, s.GalleryItems); err != nil {
		return err
	}
	return r.ReplaceTags(ctx, s.ID, s.Tags)
}

func (r *ServiceRepository) ReplaceUsefulInfos(ctx context.Context, id uuid.UUID, items []service.UsefulInfo) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM service_useful_infos WHERE service_id = $1`, pgUUID(id)); err != nil {
		return gerrors.Wrap(err, "delete useful infos")
	}
	for _, item := range items {
		if _, err := tx.Exec(ctx, `
		INSERT INTO service_useful_infos (service_id, title, description, display_order)
		VALUES ($1, $2, $3, $4)
		`, pgUUID(id), item.Title, item.Description, item.Order); err != nil {
			return gerrors.Wrap(err, "insert useful info")
		}
	}
	return nil
}

func (r *ServiceRepository) ReplaceOfferings(ctx context.Context, id uuid.UUID, items []service.Offering) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM service_offerings WHERE service_id = $1`, pgUUID(id)); err != nil {
		return gerrors.Wrap(err, "delete offerings")
	}
	for _, item := range items {
		if _, err := tx.Exec(ctx, `
		INSERT INTO service_offerings (service_id, offering, display_order)
		VALUES ($1, $2, $3)
		`, pgUUID(id), item.Offering, item.Order); err != nil {
			return gerrors.Wrap(err, "insert offering")
		}
	}
	return nil
}

func (r *ServiceRepository) ReplaceSocialMedias(ctx context.Context, id uuid.UUID, items []service.SocialMedia) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM service_social_medias WHERE service_id = $1`, pgUUID(id)); err != nil {
		return gerrors.Wrap(err, "delete service social medias")
	}
	for i, item := range items {
		if _, err := tx.Exec(ctx, `
		INSERT INTO service_social_medias (service_id, type, url, display_order)
		VALUES ($1, $2, $3, $4)
		`, pgUUID(id), item.Type, item.URL, i); err != nil {
			return gerrors.Wrap(err, "insert service social media")
		}
	}
	return nil
}

func (r *ServiceRepository) ReplaceGalleryItems(ctx context.Context, id uuid.UUID, items []service.GalleryItem) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM service_gallery_items WHERE service_id = $1`, pgUUID(id)); err != nil {
		return gerrors.Wrap(err, "delete gallery items")
	}
	for i, item := range items {
		if _, err := tx.Exec(ctx, `
		INSERT INTO service_gallery_items (service_id, file_id, display_order)
		VALUES ($1, $2, $3)
		`, pgUUID(id), pgUUID(item.FileID), i); err != nil {
			return gerrors.Wrap(err, "insert gallery item")
		}
	}
	return nil
}

func (r *ServiceRepository) ReplaceTags(ctx context.Context, id uuid.UUID, items []service.Tag) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM service_tags WHERE service_id = $1`, pgUUID(id)); err != nil {
		return gerrors.Wrap(err, "delete tags")
	}
	for _, item := range items {
		if _, err := tx.Exec(ctx, `
		INSERT INTO service_tags (service_id, slug, label)
		VALUES ($1, $2, $3)
		`, pgUUID(id), item.Slug, item.Label); err != nil {
			return gerrors.Wrap(err, "insert tag")
		}
	}
	return nil
}

func (r *ServiceRepository) loadChildren(ctx context.Context, tx composables.Tx, s *service.Service) error {
	rows, err := tx.Query(ctx, `
	SELECT title, description, display_order
	FROM service_useful_infos
	WHERE service_id = $1
	ORDER BY display_order
	`, pgUUID(s.ID))
	if err != nil {
		return gerrors.Wrap(err, "list useful infos")
	}
	for rows.Next() {
		var ui service.UsefulInfo
		if err := rows.Scan(&ui.Title, &ui.Description, &ui.Order); err != nil {
			rows.Close()
			return err
		}
		s.UsefulInfos = append(s.UsefulInfos, ui)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = tx.Query(ctx, `
	SELECT offering, display_order
	FROM service_offerings
	WHERE service_id = $1
	ORDER BY display_order
	`, pgUUID(s.ID))
	if err != nil {
		return gerrors.Wrap(err, "list offerings")
	}
	for rows.Next() {
		var o service.Offering
		if err := rows.Scan(&o.Offering, &o.Order); err != nil {
			rows.Close()
			return err
		}
		s.Offerings = append(s.Offerings, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = tx.Query(ctx, `
	SELECT type, url
	FROM service_social_medias
	WHERE service_id = $1
	ORDER BY display_order
	`, pgUUID(s.ID))
	if err != nil {
		return gerrors.Wrap(err, "list service social medias")
	}
	for rows.Next() {
		var sm service.SocialMedia
		if err := rows.Scan(&sm.Type, &sm.URL); err != nil {
			rows.Close()
			return err
		}
		s.SocialMedias = append(s.SocialMedias, sm)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = tx.Query(ctx, `
	SELECT file_id
	FROM service_gallery_items
	WHERE service_id = $1
	ORDER BY display_order
	`, pgUUID(s.ID))
	if err != nil {
		return gerrors.Wrap(err, "list gallery items")
	}
	for rows.Next() {
		var gi service.GalleryItem
		if err := rows.Scan(&gi.FileID); err != nil {
			rows.Close()
			return err
		}
		s.GalleryItems = append(s.GalleryItems, gi)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = tx.Query(ctx, `
	SELECT slug, label
	FROM service_tags
	WHERE service_id = $1
	ORDER BY slug
	`, pgUUID(s.ID))
	if err != nil {
		return gerrors.Wrap(err, "list tags")
	}
	for rows.Next() {
		var t service.Tag
		if err := rows.Scan(&t.Slug, &t.Label); err != nil {
			rows.Close()
			return err
		}
		s.Tags = append(s.Tags, t)
	}
	rows.Close()
	return rows.Err()
}
