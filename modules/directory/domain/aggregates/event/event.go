package event

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID             uuid.UUID  `json:"id"`
	OrganisationID uuid.UUID  `json:"organisation_id"`
	Title          string     `json:"title"`
	Intro          string     `json:"intro"`
	Description    string     `json:"description"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	StartTime      string     `json:"start_time"`
	EndTime        string     `json:"end_time"`
	IsFree         bool       `json:"is_free"`
	FeesText       *string    `json:"fees_text"`
	FeesURL        *string    `json:"fees_url"`
	OrganiserName  *string    `json:"organiser_name"`
	OrganiserPhone *string    `json:"organiser_phone"`
	OrganiserEmail *string    `json:"organiser_email"`
	OrganiserURL   *string    `json:"organiser_url"`
	BookingTitle   *string    `json:"booking_title"`
	BookingSummary *string    `json:"booking_summary"`
	BookingURL     *string    `json:"booking_url"`
	BookingCTA     *string    `json:"booking_cta"`
	Homepage       bool       `json:"homepage"`
	IsVirtual      bool       `json:"is_virtual"`
	LocationID     *uuid.UUID `json:"location_id"`
	ImageFileID    *uuid.UUID `json:"image_file_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	TaxonomyIDs []uuid.UUID `json:"category_taxonomies"`
}
