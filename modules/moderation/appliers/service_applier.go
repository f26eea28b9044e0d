package appliers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/organisation"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/service"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/taxonomy"
	"github.com/openplaces/directory-sdk/modules/directory/services"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
)

type ServiceApplier struct {
	svcs       service.Repository
	orgs       organisation.Repository
	files      *services.FileService
	taxonomies *services.TaxonomyService
}

func NewServiceApplier(svcs service.Repository, orgs organisation.Repository, files *services.FileService, taxonomies *services.TaxonomyService) *ServiceApplier {
	return &ServiceApplier{svcs: svcs, orgs: orgs, files: files, taxonomies: taxonomies}
}

func (a *ServiceApplier) ResourceName() string { return "service" }

func (a *ServiceApplier) DisplayName(ctx context.Context, u *updaterequest.UpdateRequest) (string, error) {
	if u.UpdateableID == nil {
		return payloadString(u.Data, "name"), nil
	}
	svc, err := a.svcs.GetByID(ctx, *u.UpdateableID)
	if err != nil {
		return "", err
	}
	return svc.Name, nil
}

type serviceChangeSet struct {
	OrganisationID updaterequest.Field[uuid.UUID]             `json:"organisation_id"`
	LogoFileID     updaterequest.Field[uuid.UUID]             `json:"logo_file_id"`
	UsefulInfos    updaterequest.Field[[]service.UsefulInfo]  `json:"useful_infos"`
	Offerings      updaterequest.Field[[]service.Offering]    `json:"offerings"`
	SocialMedias   updaterequest.Field[[]service.SocialMedia] `json:"social_medias"`
	GalleryItems   updaterequest.Field[[]service.GalleryItem] `json:"gallery_items"`
	Tags           updaterequest.Field[[]service.Tag]         `json:"tags"`
	TaxonomyIDs    updaterequest.Field[[]uuid.UUID]           `json:"category_taxonomies"`
}

type serviceInput struct {
	OrganisationID uuid.UUID          `json:"organisation_id" validate:"required"`
	Slug           string             `json:"slug" validate:"required,max=255"`
	Name           string             `json:"name" validate:"required,max=255"`
	Type           string             `json:"type" validate:"required,oneof=service activity club group"`
	Status         string             `json:"status" validate:"required,oneof=active inactive"`
	Intro          string             `json:"intro" validate:"required,max=300"`
	Description    string             `json:"description" validate:"required,max=10000"`
	WaitTime       *string            `json:"wait_time" validate:"omitempty,oneof=one_week two_weeks three_weeks month longer"`
	FeesText       *string            `json:"fees_text" validate:"omitempty,max=75"`
	FeesURL        *string            `json:"fees_url" validate:"omitempty,url,max=255"`
	VideoEmbed     *string            `json:"video_embed" validate:"omitempty,url,max=255"`
	URL            *string            `json:"url" validate:"omitempty,url,max=255"`
	ContactName    *string            `json:"contact_name" validate:"omitempty,max=255"`
	ContactPhone   *string            `json:"contact_phone" validate:"omitempty,max=255"`
	ContactEmail   *string            `json:"contact_email" validate:"omitempty,email,max=255"`
	UsefulInfos    []usefulInfoInput  `json:"useful_infos" validate:"dive"`
	Offerings      []offeringInput    `json:"offerings" validate:"dive"`
	SocialMedias   []socialMediaInput `json:"social_medias" validate:"dive"`
	Tags           []tagInput         `json:"tags" validate:"dive"`
}

type usefulInfoInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=10000"`
	Order       int    `json:"order" validate:"min=0"`
}

type offeringInput struct {
	Offering string `json:"offering" validate:"required,max=255"`
	Order    int    `json:"order" validate:"min=0"`
}

type tagInput struct {
	Slug  string `json:"slug" validate:"required,max=255"`
	Label string `json:"label" validate:"required,max=255"`
}

func (a *ServiceApplier) Snapshot(ctx context.Context, id *uuid.UUID) (json.RawMessage, error) {
	if id == nil {
		// New services default to active; everything else comes from the
		// payload.
		return json.RawMessage(`{"status":"active"}`), nil
	}
	svc, err := a.svcs.GetByID(ctx, *id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(svc)
}

func (a *ServiceApplier) Validate(ctx context.Context, u *updaterequest.UpdateRequest, mode Mode) error {
	snapshot, err := a.Snapshot(ctx, u.UpdateableID)
	if err != nil {
		return err
	}
	merged, err := mergeOver(snapshot, u.Data)
	if err != nil {
		return err
	}

	var in serviceInput
	if err := json.Unmarshal(merged, &in); err != nil {
		return fieldError("data", "payload does not match the service schema")
	}
	if err := validateStruct(&in); err != nil {
		return err
	}

	var cs serviceChangeSet
	if err := json.Unmarshal(u.Data, &cs); err != nil {
		return fieldError("data", "payload does not match the service schema")
	}
	if id, ok := cs.OrganisationID.Value(); ok {
		if _, err := a.orgs.GetByID(ctx, id); err != nil {
			if errors.Is(err, organisation.ErrNotFound) {
				return fieldError("organisation_id", "refers to an unknown organisation")
			}
			return err
		}
	}

	var current serviceChangeSet
	_ = json.Unmarshal(snapshot, &current)
	if id, ok := cs.LogoFileID.Value(); ok {
		if err := checkFileRef(ctx, a.files, "logo_file_id", id, mode, current.LogoFileID.Ptr()); err != nil {
			return err
		}
	}
	if items, ok := cs.GalleryItems.Value(); ok {
		currentIDs := map[uuid.UUID]bool{}
		if existing, ok := current.GalleryItems.Value(); ok {
			for _, g := range existing {
				currentIDs[g.FileID] = true
			}
		}
		for _, g := range items {
			var ref *uuid.UUID
			if currentIDs[g.FileID] {
				id := g.FileID
				ref = &id
			}
			if err := checkFileRef(ctx, a.files, "gallery_items", g.FileID, mode, ref); err != nil {
				return err
			}
		}
	}
	if ids, ok := cs.TaxonomyIDs.Value(); ok {
		if err := checkTaxonomyRefs(ctx, a.taxonomies, "category_taxonomies", ids); err != nil {
			return err
		}
	}
	return nil
}

func (a *ServiceApplier) Apply(ctx context.Context, u *updaterequest.UpdateRequest) (uuid.UUID, error) {
	snapshot, err := a.Snapshot(ctx, u.UpdateableID)
	if err != nil {
		return uuid.Nil, err
	}
	merged, err := mergeOver(snapshot, u.Data)
	if err != nil {
		return uuid.Nil, err
	}

	var svc service.Service
	if err := json.Unmarshal(merged, &svc); err != nil {
		return uuid.Nil, err
	}
	var cs serviceChangeSet
	if err := json.Unmarshal(u.Data, &cs); err != nil {
		return uuid.Nil, err
	}

	isNew := u.Type.IsNew()
	if isNew {
		// Create persists all child collections alongside the entity.
		if _, err := a.svcs.Create(ctx, &svc); err != nil {
			return uuid.Nil, err
		}
	} else {
		svc.ID = *u.UpdateableID
		if _, err := a.svcs.Update(ctx, &svc); err != nil {
			return uuid.Nil, err
		}
		if cs.UsefulInfos.IsSet() {
			if err := a.svcs.ReplaceUsefulInfos(ctx, svc.ID, svc.UsefulInfos); err != nil {
				return uuid.Nil, err
			}
		}
		if cs.Offerings.IsSet() {
			if err := a.svcs.ReplaceOfferings(ctx, svc.ID, svc.Offerings); err != nil {
				return uuid.Nil, err
			}
		}
		if cs.SocialMedias.IsSet() {
			if err := a.svcs.ReplaceSocialMedias(ctx, svc.ID, svc.SocialMedias); err != nil {
				return uuid.Nil, err
			}
		}
		if cs.GalleryItems.IsSet() {
			if err := a.svcs.ReplaceGalleryItems(ctx, svc.ID, svc.GalleryItems); err != nil {
				return uuid.Nil, err
			}
		}
		if cs.Tags.IsSet() {
			if err := a.svcs.ReplaceTags(ctx, svc.ID, svc.Tags); err != nil {
				return uuid.Nil, err
			}
		}
	}

	if isNew || cs.GalleryItems.IsSet() {
		for _, g := range svc.GalleryItems {
			if err := a.files.Confirm(ctx, g.FileID); err != nil {
				return uuid.Nil, err
			}
		}
	}
	if isNew || cs.TaxonomyIDs.IsSet() {
		if err := a.taxonomies.Sync(ctx, taxonomy.KindService, svc.ID, svc.TaxonomyIDs); err != nil {
			return uuid.Nil, err
		}
	}
	if id, ok := cs.LogoFileID.Value(); ok {
		if err := a.files.Confirm(ctx, id); err != nil {
			return uuid.Nil, err
		}
	}
	return svc.ID, nil
}
