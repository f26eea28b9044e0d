package appliers

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/organisation"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/taxonomy"
	"github.com/openplaces/directory-sdk/modules/directory/services"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
)

// OrganisationApplier handles existing-organisation updates plus the two
// new-organisation flows (admin-created and public sign-up form).
type OrganisationApplier struct {
	orgs       organisation.Repository
	files      *services.FileService
	taxonomies *services.TaxonomyService
}

func NewOrganisationApplier(orgs organisation.Repository, files *services.FileService, taxonomies *services.TaxonomyService) *OrganisationApplier {
	return &OrganisationApplier{orgs: orgs, files: files, taxonomies: taxonomies}
}

func (a *OrganisationApplier) ResourceName() string { return "organisation" }

func (a *OrganisationApplier) DisplayName(ctx context.Context, u *updaterequest.UpdateRequest) (string, error) {
	if u.UpdateableID == nil {
		return payloadString(u.Data, "name"), nil
	}
	org, err := a.orgs.GetByID(ctx, *u.UpdateableID)
	if err != nil {
		return "", err
	}
	return org.Name, nil
}

// organisationChangeSet decodes only the parts of the payload whose
// presence changes what Apply touches: absent collections are left alone,
// submitted ones are replaced wholesale.
type organisationChangeSet struct {
	LogoFileID   updaterequest.Field[uuid.UUID]                  `json:"logo_file_id"`
	SocialMedias updaterequest.Field[[]organisation.SocialMedia] `json:"social_medias"`
	TaxonomyIDs  updaterequest.Field[[]uuid.UUID]                `json:"category_taxonomies"`
}

type organisationInput struct {
	Name         string             `json:"name" validate:"required,max=255"`
	Slug         string             `json:"slug" validate:"required,max=255"`
	Description  string             `json:"description" validate:"required,max=10000"`
	URL          *string            `json:"url" validate:"omitempty,url,max=255"`
	Email        *string            `json:"email" validate:"omitempty,email,max=255"`
	Phone        *string            `json:"phone" validate:"omitempty,max=255"`
	SocialMedias []socialMediaInput `json:"social_medias" validate:"dive"`
}

type socialMediaInput struct {
	Type string `json:"type" validate:"required,oneof=facebook twitter instagram linkedin youtube other"`
	URL  string `json:"url" validate:"required,url,max=255"`
}

func (a *OrganisationApplier) Snapshot(ctx context.Context, id *uuid.UUID) (json.RawMessage, error) {
	if id == nil {
		return json.RawMessage(`{}`), nil
	}
	org, err := a.orgs.GetByID(ctx, *id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(org)
}

func (a *OrganisationApplier) Validate(ctx context.Context, u *updaterequest.UpdateRequest, mode Mode) error {
	snapshot, err := a.Snapshot(ctx, u.UpdateableID)
	if err != nil {
		return err
	}
	merged, err := mergeOver(snapshot, u.Data)
	if err != nil {
		return err
	}

	var in organisationInput
	if err := json.Unmarshal(merged, &in); err != nil {
		return fieldError("data", "payload does not match the organisation schema")
	}
	if err := validateStruct(&in); err != nil {
		return err
	}

	var cs organisationChangeSet
	if err := json.Unmarshal(u.Data, &cs); err != nil {
		return fieldError("data", "payload does not match the organisation schema")
	}
	if id, ok := cs.LogoFileID.Value(); ok {
		var current organisationChangeSet
		_ = json.Unmarshal(snapshot, &current)
		if err := checkFileRef(ctx, a.files, "logo_file_id", id, mode, current.LogoFileID.Ptr()); err != nil {
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

func (a *OrganisationApplier) Apply(ctx context.Context, u *updaterequest.UpdateRequest) (uuid.UUID, error) {
	snapshot, err := a.Snapshot(ctx, u.UpdateableID)
	if err != nil {
		return uuid.Nil, err
	}
	merged, err := mergeOver(snapshot, u.Data)
	if err != nil {
		return uuid.Nil, err
	}

	var org organisation.Organisation
	if err := json.Unmarshal(merged, &org); err != nil {
		return uuid.Nil, err
	}
	var cs organisationChangeSet
	if err := json.Unmarshal(u.Data, &cs); err != nil {
		return uuid.Nil, err
	}

	if u.Type.IsNew() {
		// Create persists the social media rows alongside the entity.
		if _, err := a.orgs.Create(ctx, &org); err != nil {
			return uuid.Nil, err
		}
	} else {
		org.ID = *u.UpdateableID
		if _, err := a.orgs.Update(ctx, &org); err != nil {
			return uuid.Nil, err
		}
		if cs.SocialMedias.IsSet() {
			if err := a.orgs.ReplaceSocialMedias(ctx, org.ID, org.SocialMedias); err != nil {
				return uuid.Nil, err
			}
		}
	}
	if u.Type.IsNew() || cs.TaxonomyIDs.IsSet() {
		if err := a.taxonomies.Sync(ctx, taxonomy.KindOrganisation, org.ID, org.TaxonomyIDs); err != nil {
			return uuid.Nil, err
		}
	}
	if id, ok := cs.LogoFileID.Value(); ok {
		if err := a.files.Confirm(ctx, id); err != nil {
			return uuid.Nil, err
		}
	}
	return org.ID, nil
}
