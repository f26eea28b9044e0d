package service

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeService  Type = "service"
	TypeActivity Type = "activity"
	TypeClub     Type = "club"
	TypeGroup    Type = "group"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type UsefulInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

type Offering struct {
	Offering string `json:"offering"`
	Order    int    `json:"order"`
}

type SocialMedia struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type GalleryItem struct {
	FileID uuid.UUID `json:"file_id"`
}

type Tag struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

type Service struct {
	ID             uuid.UUID  `json:"id"`
	OrganisationID uuid.UUID  `json:"organisation_id"`
	Slug           string     `json:"slug"`
	Name           string     `json:"name"`
	Type           Type       `json:"type"`
	Status         Status     `json:"status"`
	Intro          string     `json:"intro"`
	Description    string     `json:"description"`
	WaitTime       *string    `json:"wait_time"`
	IsFree         bool       `json:"is_free"`
	FeesText       *string    `json:"fees_text"`
	FeesURL        *string    `json:"fees_url"`
	VideoEmbed     *string    `json:"video_embed"`
	URL            *string    `json:"url"`
	ContactName    *string    `json:"contact_name"`
	ContactPhone   *string    `json:"contact_phone"`
	ContactEmail   *string    `json:"contact_email"`
	LogoFileID     *uuid.UUID `json:"logo_file_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	UsefulInfos  []UsefulInfo  `json:"useful_infos"`
	Offerings    []Offering    `json:"offerings"`
	SocialMedias []SocialMedia `json:"social_medias"`
	GalleryItems []GalleryItem `json:"gallery_items"`
	Tags         []Tag         `json:"tags"`
	TaxonomyIDs  []uuid.UUID   `json:"category_taxonomies"`
}
