package page

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeInformation Type = "information"
	TypeLanding     Type = "landing"
)

type Page struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Excerpt     *string         `json:"excerpt"`
	Content     json.RawMessage `json:"content"`
	PageType    Type            `json:"page_type"`
	Order       int             `json:"order"`
	Enabled     bool            `json:"enabled"`
	ImageFileID *uuid.UUID      `json:"image_file_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
