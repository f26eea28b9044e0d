package location

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("location not found")

type Location struct {
	ID                  uuid.UUID `json:"id"`
	AddressLine1        string    `json:"address_line_1"`
	AddressLine2        *string   `json:"address_line_2"`
	City                string    `json:"city"`
	County              string    `json:"county"`
	Postcode            string    `json:"postcode"`
	Country             string    `json:"country"`
	HasWheelchairAccess bool      `json:"has_wheelchair_access"`
	HasInductionLoop    bool      `json:"has_induction_loop"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Location, error)
	Create(ctx context.Context, l *Location) (*Location, error)
}
