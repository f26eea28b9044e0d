package appliers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/event"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/location"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/organisation"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/taxonomy"
	"github.com/openplaces/directory-sdk/modules/directory/services"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
)

type EventApplier struct {
	events     event.Repository
	orgs       organisation.Repository
	locations  location.Repository
	files      *services.FileService
	taxonomies *services.TaxonomyService
}

func NewEventApplier(events event.Repository, orgs organisation.Repository, locations location.Repository, files *services.FileService, taxonomies *services.TaxonomyService) *EventApplier {
	return &EventApplier{events: events, orgs: orgs, locations: locations, files: files, taxonomies: taxonomies}
}

func (a *EventApplier) ResourceName() string { return "organisation event" }

func (a *EventApplier) DisplayName(ctx context.Context, u *updaterequest.UpdateRequest) (string, error) {
	if u.UpdateableID == nil {
		return payloadString(u.Data, "title"), nil
	}
	ev, err := a.events.GetByID(ctx, *u.UpdateableID)
	if err != nil {
		return "", err
	}
	return ev.Title, nil
}

type eventChangeSet struct {
	OrganisationID updaterequest.Field[uuid.UUID]   `json:"organisation_id"`
	LocationID     updaterequest.Field[uuid.UUID]   `json:"location_id"`
	ImageFileID    updaterequest.Field[uuid.UUID]   `json:"image_file_id"`
	TaxonomyIDs    updaterequest.Field[[]uuid.UUID] `json:"category_taxonomies"`
}

type eventInput struct {
	OrganisationID uuid.UUID `json:"organisation_id" validate:"required"`
	Title          string    `json:"title" validate:"required,max=255"`
	Intro          string    `json:"intro" validate:"required,max=300"`
	Description    string    `json:"description" validate:"required,max=10000"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	StartTime      string    `json:"start_time" validate:"required,datetime=15:04"`
	EndTime        string    `json:"end_time" validate:"required,datetime=15:04"`
	FeesText       *string   `json:"fees_text" validate:"omitempty,max=75"`
	FeesURL        *string   `json:"fees_url" validate:"omitempty,url,max=255"`
	OrganiserName  *string   `json:"organiser_name" validate:"omitempty,max=255"`
	OrganiserPhone *string   `json:"organiser_phone" validate:"omitempty,max=255"`
	OrganiserEmail *string   `json:"organiser_email" validate:"omitempty,email,max=255"`
	OrganiserURL   *string   `json:"organiser_url" validate:"omitempty,url,max=255"`
	BookingTitle   *string   `json:"booking_title" validate:"omitempty,max=255"`
	BookingSummary *string   `json:"booking_summary" validate:"omitempty,max=300"`
	BookingURL     *string   `json:"booking_url" validate:"omitempty,url,max=255"`
	BookingCTA     *string   `json:"booking_cta" validate:"omitempty,max=50"`
}

func (a *EventApplier) Snapshot(ctx context.Context, id *uuid.UUID) (json.RawMessage, error) {
	if id == nil {
		return json.RawMessage(`{}`), nil
	}
	e, err := a.events.GetByID(ctx, *id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

func (a *EventApplier) Validate(ctx context.Context, u *updaterequest.UpdateRequest, mode Mode) error {
	snapshot, err := a.Snapshot(ctx, u.UpdateableID)
	if err != nil {
		return err
	}
	merged, err := mergeOver(snapshot, u.Data)
	if err != nil {
		return err
	}

	var in eventInput
	if err := json.Unmarshal(merged, &in); err != nil {
		return fieldError("data", "payload does not match the event schema")
	}
	if err := validateStruct(&in); err != nil {
		return err
	}

	var cs eventChangeSet
	if err := json.Unmarshal(u.Data, &cs); err != nil {
		return fieldError("data", "payload does not match the event schema")
	}
	if id, ok := cs.OrganisationID.Value(); ok {
		if _, err := a.orgs.GetByID(ctx, id); err != nil {
			if errors.Is(err, organisation.ErrNotFound) {
				return fieldError("organisation_id", "refers to an unknown organisation")
			}
			return err
		}
	}
	if id, ok := cs.LocationID.Value(); ok {
		if _, err := a.locations.GetByID(ctx, id); err != nil {
			if errors.Is(err, location.ErrNotFound) {
				return fieldError("location_id", "refers to an unknown location")
			}
			return err
		}
	}
	if id, ok := cs.ImageFileID.Value(); ok {
		var current eventChangeSet
		_ = json.Unmarshal(snapshot, &current)
		if err := checkFileRef(ctx, a.files, "image_file_id", id, mode, current.ImageFileID.Ptr()); err != nil {
			return err
		}
	}
	if ids, ok := cs.TaxonomyIDs.Value(); ok {
		if err := checkTaxonomyRefs(ctx, a.taxonomies, "category_taxonomies", ids); err != nil {
			return err
		}
	}
	return nil
}

func (a *EventApplier) Apply(ctx context.Context, u *updaterequest.UpdateRequest) (uuid.UUID, error) {
	snapshot, err := a.Snapshot(ctx, u.UpdateableID)
	if err != nil {
		return uuid.Nil, err
	}
	merged, err := mergeOver(snapshot, u.Data)
	if err != nil {
		return uuid.Nil, err
	}

	var e event.Event
	if err := json.Unmarshal(merged, &e); err != nil {
		return uuid.Nil, err
	}
	var cs eventChangeSet
	if err := json.Unmarshal(u.Data, &cs); err != nil {
		return uuid.Nil, err
	}

	if u.Type.IsNew() {
		if _, err := a.events.Create(ctx, &e); err != nil {
			return uuid.Nil, err
		}
	} else {
		e.ID = *u.UpdateableID
		if _, err := a.events.Update(ctx, &e); err != nil {
			return uuid.Nil, err
		}
	}

	if u.Type.IsNew() || cs.TaxonomyIDs.IsSet() {
		if err := a.taxonomies.Sync(ctx, taxonomy.KindEvent, e.ID, e.TaxonomyIDs); err != nil {
			return uuid.Nil, err
		}
	}
	if id, ok := cs.ImageFileID.Value(); ok {
		if err := a.files.Confirm(ctx, id); err != nil {
			return uuid.Nil, err
		}
	}
	return e.ID, nil
}
