package taxonomy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownTaxonomies = errors.New("unknown taxonomy ids")

type Taxonomy struct {
	ID        uuid.UUID  `json:"id"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Name      string     `json:"name"`
	Order     int        `json:"order"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// EntityKind names a taxonomy-bearing entity; each kind has its own pivot
// table.
type EntityKind string

const (
	KindOrganisation EntityKind = "organisation"
	KindService      EntityKind = "service"
	KindEvent        EntityKind = "event"
)

type Repository interface {
	MissingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	// SyncRelationships replaces the pivot rows for the entity with the
	// given set, inside the ambient transaction.
	SyncRelationships(ctx context.Context, kind EntityKind, entityID uuid.UUID, ids []uuid.UUID) error
	ListForEntity(ctx context.Context, kind EntityKind, entityID uuid.UUID) ([]uuid.UUID, error)
}
