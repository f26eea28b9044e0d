package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/page"
	"github.com/openplaces/directory-sdk/pkg/composables"
)

type PageRepository struct{}

func NewPageRepository() page.Repository {
	return &PageRepository{}
}

func (r *PageRepository) GetByID(ctx context.Context, id uuid.UUID) (*page.Page, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var (
		p       page.Page
		excerpt pgtype.Text
		imageID pgtype.UUID
	)
	if err := tx.QueryRow(ctx, `
	SELECT id, title, slug, excerpt, content, page_type, display_order, enabled, image_file_id, created_at, updated_at
	FROM pages
	WHERE id = $1
	`, pgUUID(id)).Scan(
		&p.ID, &p.Title, &p.Slug, &excerpt, &p.Content, &p.PageType, &p.Order, &p.Enabled, &imageID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, page.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "get page")
	}
	p.Excerpt = asNullableText(excerpt)
	p.ImageFileID = asNullableUUID(imageID)
	return &p, nil
}

func (r *PageRepository) Create(ctx context.Context, p *page.Page) (*page.Page, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	content := []byte("{}")
	if len(p.Content) > 0 {
		content = p.Content
	}

	if err := tx.QueryRow(ctx, `
	INSERT INTO pages (title, slug, excerpt, content, page_type, display_order, enabled, image_file_id)
	VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8)
	RETURNING id, created_at, updated_at
	`,
		p.Title, p.Slug, pgNullableText(p.Excerpt), content,
		string(p.PageType), p.Order, p.Enabled, pgNullableUUID(p.ImageFileID),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, page.ErrSlugTaken
		}
		return nil, gerrors.Wrap(err, "create page")
	}
	return p, nil
}

func (r *PageRepository) Update(ctx context.Context, p *page.Page) (*page.Page, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	content := []byte("{}")
	if len(p.Content) > 0 {
		content = p.Content
	}

	if err := tx.QueryRow(ctx, `
	UPDATE pages
	   SET title = $2,
	       slug = $3,
	       excerpt = $4,
	       content = $5::jsonb,
	       page_type = $6,
	       display_order = $7,
	       enabled = $8,
	       image_file_id = $9,
	       updated_at = now()
	 WHERE id = $1
	RETURNING updated_at
	`,
		pgUUID(p.ID),
		p.Title, p.Slug, pgNullableText(p.Excerpt), content,
		string(p.PageType), p.Order, p.Enabled, pgNullableUUID(p.ImageFileID),
	).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, page.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, page.ErrSlugTaken
		}
		return nil, gerrors.Wrap(err, "update page")
	}
	return p, nil
}
