package appliers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/page"
	"github.com/openplaces/directory-sdk/modules/directory/services"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
)

type pageFixture struct {
	applier *PageApplier
	pages   *fakePageRepo
}

func newPageFixture() *pageFixture {
	pages := newFakePageRepo()
	return &pageFixture{
		applier: NewPageApplier(pages, services.NewFileService(newFakeFileRepo())),
		pages:   pages,
	}
}

func (f *pageFixture) seedPage() *page.Page {
	p := &page.Page{
		ID:       uuid.New(),
		Title:    "About Us",
		Slug:     "about-us",
		Content:  json.RawMessage(`{"intro":{"copy":["old intro"]},"video":{"url":"https://v.example"}}`),
		PageType: page.TypeInformation,
		Enabled:  true,
	}
	f.pages.pages[p.ID] = p
	return p
}

func existingPageRequest(id uuid.UUID, data string) *updaterequest.UpdateRequest {
	return &updaterequest.UpdateRequest{
		Type:         updaterequest.TypePage,
		UpdateableID: &id,
		Data:         json.RawMessage(data),
	}
}

func TestPageApplier_ApplyReplacesContentWholesale(t *testing.T) {
	t.Parallel()

	f := newPageFixture()
	p := f.seedPage()

	// A payload carrying content supersedes every stored block; the video
	// block must not survive the apply.
	u := existingPageRequest(p.ID, `{"content":{"intro":{"copy":["new intro"]}}}`)
	require.NoError(t, f.applier.Validate(context.Background(), u, ModeApply))

	_, err := f.applier.Apply(context.Background(), u)
	require.NoError(t, err)

	require.Len(t, f.pages.updated, 1)
	updated := f.pages.updated[0]
	assert.JSONEq(t, `{"intro":{"copy":["new intro"]}}`, string(updated.Content))
	assert.Equal(t, "About Us", updated.Title)
}

func TestPageApplier_ApplyWithoutContentKeepsStoredBlocks(t *testing.T) {
	t.Parallel()

	f := newPageFixture()
	p := f.seedPage()

	u := existingPageRequest(p.ID, `{"title":"About The Team"}`)
	_, err := f.applier.Apply(context.Background(), u)
	require.NoError(t, err)

	require.Len(t, f.pages.updated, 1)
	updated := f.pages.updated[0]
	assert.Equal(t, "About The Team", updated.Title)
	assert.JSONEq(t, string(p.Content), string(updated.Content))
}

func TestPageApplier_DisplayName(t *testing.T) {
	t.Parallel()

	f := newPageFixture()
	p := f.seedPage()

	name, err := f.applier.DisplayName(context.Background(), existingPageRequest(p.ID, `{}`))
	require.NoError(t, err)
	assert.Equal(t, "About Us", name)

	name, err = f.applier.DisplayName(context.Background(), &updaterequest.UpdateRequest{
		Type: updaterequest.TypeNewPage,
		Data: json.RawMessage(`{"title":"Volunteer With Us"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Volunteer With Us", name)
}
