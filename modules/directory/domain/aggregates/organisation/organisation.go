package organisation

import (
	"time"

	"github.com/google/uuid"
)

type SocialMedia struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Organisation struct {
	ID          uuid.UUID  `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	URL         *string    `json:"url"`
	Email       *string    `json:"email"`
	Phone       *string    `json:"phone"`
	LogoFileID  *uuid.UUID `json:"logo_file_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	SocialMedias []SocialMedia `json:"social_medias"`
	TaxonomyIDs  []uuid.UUID   `json:"category_taxonomies"`
}
