package appliers

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/page"
	"github.com/openplaces/directory-sdk/modules/directory/services"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
)

type PageApplier struct {
	pages page.Repository
	files *services.FileService
}

func NewPageApplier(pages page.Repository, files *services.FileService) *PageApplier {
	return &PageApplier{pages: pages, files: files}
}

func (a *PageApplier) ResourceName() string { return "page" }

func (a *PageApplier) DisplayName(ctx context.Context, u *updaterequest.UpdateRequest) (string, error) {
	if u.UpdateableID == nil {
		return payloadString(u.Data, "title"), nil
	}
	p, err := a.pages.GetByID(ctx, *u.UpdateableID)
	if err != nil {
		return "", err
	}
	return p.Title, nil
}

type pageChangeSet struct {
	ImageFileID updaterequest.Field[uuid.UUID]       `json:"image_file_id"`
	Content     updaterequest.Field[json.RawMessage] `json:"content"`
}

type pageInput struct {
	Title    string          `json:"title" validate:"required,max=255"`
	Slug     string          `json:"slug" validate:"required,max=255"`
	Excerpt  *string         `json:"excerpt" validate:"omitempty,max=300"`
	Content  json.RawMessage `json:"content" validate:"required"`
	PageType string          `json:"page_type" validate:"required,oneof=information landing"`
	Order    int             `json:"order" validate:"min=0"`
}

// mergeContent merges the payload over the snapshot, except that a payload
// carrying content supersedes the stored content wholesale. Deep-merging it
// would resurrect blocks that conflict resolution already treats as
// replaced.
func mergeContent(snapshot, data json.RawMessage, cs pageChangeSet) (json.RawMessage, error) {
	if cs.Content.IsSet() {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(snapshot, &doc); err != nil {
			return nil, err
		}
		delete(doc, "content")
		var err error
		if snapshot, err = json.Marshal(doc); err != nil {
			return nil, err
		}
	}
	return mergeOver(snapshot, data)
}

func (a *PageApplier) Snapshot(ctx context.Context, id *uuid.UUID) (json.RawMessage, error) {
	if id == nil {
		return json.RawMessage(`{"page_type":"information","enabled":false,"content":{}}`), nil
	}
	p, err := a.pages.GetByID(ctx, *id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

func (a *PageApplier) Validate(ctx context.Context, u *updaterequest.UpdateRequest, mode Mode) error {
	snapshot, err := a.Snapshot(ctx, u.UpdateableID)
	if err != nil {
		return err
	}
	var cs pageChangeSet
	if err := json.Unmarshal(u.Data, &cs); err != nil {
		return fieldError("data", "payload does not match the page schema")
	}
	merged, err := mergeContent(snapshot, u.Data, cs)
	if err != nil {
		return err
	}

	var in pageInput
	if err := json.Unmarshal(merged, &in); err != nil {
		return fieldError("data", "payload does not match the page schema")
	}
	if err := validateStruct(&in); err != nil {
		return err
	}

	if id, ok := cs.ImageFileID.Value(); ok {
		var current pageChangeSet
		_ = json.Unmarshal(snapshot, &current)
		if err := checkFileRef(ctx, a.files, "image_file_id", id, mode, current.ImageFileID.Ptr()); err != nil {
			return err
		}
	}
	return nil
}

func (a *PageApplier) Apply(ctx context.Context, u *updaterequest.UpdateRequest) (uuid.UUID, error) {
	snapshot, err := a.Snapshot(ctx, u.UpdateableID)
	if err != nil {
		return uuid.Nil, err
	}
	var cs pageChangeSet
	if err := json.Unmarshal(u.Data, &cs); err != nil {
		return uuid.Nil, err
	}
	merged, err := mergeContent(snapshot, u.Data, cs)
	if err != nil {
		return uuid.Nil, err
	}

	var p page.Page
	if err := json.Unmarshal(merged, &p); err != nil {
		return uuid.Nil, err
	}

	if u.Type.IsNew() {
		if _, err := a.pages.Create(ctx, &p); err != nil {
			return uuid.Nil, err
		}
	} else {
		p.ID = *u.UpdateableID
		if _, err := a.pages.Update(ctx, &p); err != nil {
			return uuid.Nil, err
		}
	}

	if id, ok := cs.ImageFileID.Value(); ok {
		if err := a.files.Confirm(ctx, id); err != nil {
			return uuid.Nil, err
		}
	}
	return p.ID, nil
}
