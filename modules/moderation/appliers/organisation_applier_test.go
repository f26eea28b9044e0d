package appliers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/organisation"
	"github.com/openplaces/directory-sdk/modules/directory/services"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
)

type orgFixture struct {
	applier *OrganisationApplier
	orgs    *fakeOrgRepo
	files   *fakeFileRepo
	taxes   *fakeTaxonomyRepo
}

func newOrgFixture(taxonomyIDs ...uuid.UUID) *orgFixture {
	orgs := newFakeOrgRepo()
	files := newFakeFileRepo()
	taxes := newFakeTaxonomyRepo(taxonomyIDs...)
	return &orgFixture{
		applier: NewOrganisationApplier(orgs, services.NewFileService(files), services.NewTaxonomyService(taxes)),
		orgs:    orgs,
		files:   files,
		taxes:   taxes,
	}
}

func (f *orgFixture) seedOrg() *organisation.Organisation {
	url := "https://acme.example"
	o := &organisation.Organisation{
		ID:          uuid.New(),
		Slug:        "acme",
		Name:        "Acme",
		Description: "Helps people",
		URL:         &url,
		SocialMedias: []organisation.SocialMedia{
			{Type: "twitter", URL: "https://twitter.example/acme"},
		},
	}
	f.orgs.orgs[o.ID] = o
	return o
}

func existingOrgRequest(id uuid.UUID, data string) *updaterequest.UpdateRequest {
	return &updaterequest.UpdateRequest{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &id,
		Data:         json.RawMessage(data),
	}
}

func TestOrganisationApplier_ValidateMergesOverCurrent(t *testing.T) {
	t.Parallel()

	f := newOrgFixture()
	org := f.seedOrg()

	// The payload alone would fail required checks; merged over the
	// current entity it is complete.
	u := existingOrgRequest(org.ID, `{"name":"Acme Renamed"}`)
	require.NoError(t, f.applier.Validate(context.Background(), u, ModeSubmit))
}

func TestOrganisationApplier_ValidateRejectsClearedRequiredField(t *testing.T) {
	t.Parallel()

	f := newOrgFixture()
	org := f.seedOrg()

	u := existingOrgRequest(org.ID, `{"name":null}`)
	err := f.applier.Validate(context.Background(), u, ModeSubmit)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestOrganisationApplier_ValidateUnknownFileRef(t *testing.T) {
	t.Parallel()

	f := newOrgFixture()
	org := f.seedOrg()

	u := existingOrgRequest(org.ID, `{"logo_file_id":"`+uuid.NewString()+`"}`)
	err := f.applier.Validate(context.Background(), u, ModeSubmit)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "logo_file_id")
}

func TestOrganisationApplier_AssignedFileRelaxedAtApply(t *testing.T) {
	t.Parallel()

	f := newOrgFixture()
	org := f.seedOrg()
	fileID := f.files.addPending()
	f.files.files[fileID].PendingAssignment = false

	u := existingOrgRequest(org.ID, `{"logo_file_id":"`+fileID.String()+`"}`)

	err := f.applier.Validate(context.Background(), u, ModeSubmit)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "logo_file_id")

	require.NoError(t, f.applier.Validate(context.Background(), u, ModeApply))
}

func TestOrganisationApplier_ApplyScalarChangeKeepsCollections(t *testing.T) {
	t.Parallel()

	f := newOrgFixture()
	org := f.seedOrg()

	u := existingOrgRequest(org.ID, `{"name":"Acme Renamed"}`)
	id, err := f.applier.Apply(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, org.ID, id)

	require.Len(t, f.orgs.updated, 1)
	updated := f.orgs.updated[0]
	assert.Equal(t, "Acme Renamed", updated.Name)
	assert.Equal(t, "Helps people", updated.Description)
	require.NotNil(t, updated.URL)
	assert.Equal(t, "https://acme.example", *updated.URL)

	// An untouched collection must not be rewritten.
	assert.NotContains(t, f.orgs.replaced, org.ID)
	assert.NotContains(t, f.taxes.synced, org.ID)
}

func TestOrganisationApplier_ApplyNullClearsOptionalField(t *testing.T) {
	t.Parallel()

	f := newOrgFixture()
	org := f.seedOrg()

	u := existingOrgRequest(org.ID, `{"url":null}`)
	_, err := f.applier.Apply(context.Background(), u)
	require.NoError(t, err)

	require.Len(t, f.orgs.updated, 1)
	assert.Nil(t, f.orgs.updated[0].URL)
}

func TestOrganisationApplier_ApplySubmittedCollectionReplacedWholesale(t *testing.T) {
	t.Parallel()

	f := newOrgFixture()
	org := f.seedOrg()

	u := existingOrgRequest(org.ID, `{"social_medias":[{"type":"facebook","url":"https://fb.example/acme"}]}`)
	_, err := f.applier.Apply(context.Background(), u)
	require.NoError(t, err)

	require.Contains(t, f.orgs.replaced, org.ID)
	require.Len(t, f.orgs.replaced[org.ID], 1)
	assert.Equal(t, "facebook", f.orgs.replaced[org.ID][0].Type)
}

func TestOrganisationApplier_ApplyNewCreatesEntity(t *testing.T) {
	t.Parallel()

	taxID := uuid.New()
	f := newOrgFixture(taxID)
	fileID := f.files.addPending()

	data, err := json.Marshal(map[string]any{
		"name":                "Test Org",
		"slug":                "test-org",
		"description":         "Brand new",
		"logo_file_id":        fileID,
		"category_taxonomies": []uuid.UUID{taxID},
	})
	require.NoError(t, err)

	u := &updaterequest.UpdateRequest{
		Type: updaterequest.TypeNewOrganisationByAdmin,
		Data: data,
	}
	require.NoError(t, f.applier.Validate(context.Background(), u, ModeSubmit))

	id, err := f.applier.Apply(context.Background(), u)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	require.Len(t, f.orgs.created, 1)
	created := f.orgs.created[0]
	assert.Equal(t, "Test Org", created.Name)
	assert.Equal(t, "test-org", created.Slug)

	assert.Equal(t, []uuid.UUID{taxID}, f.taxes.synced[id])
	assert.False(t, f.files.files[fileID].PendingAssignment)
	assert.ElementsMatch(t, []int{150, 350}, f.files.resized[fileID])
}

func TestOrganisationApplier_DisplayName(t *testing.T) {
	t.Parallel()

	f := newOrgFixture()
	org := f.seedOrg()

	// Existing target: resolved from the entity, not the payload.
	name, err := f.applier.DisplayName(context.Background(), existingOrgRequest(org.ID, `{"name":"Proposed"}`))
	require.NoError(t, err)
	assert.Equal(t, "Acme", name)

	name, err = f.applier.DisplayName(context.Background(), &updaterequest.UpdateRequest{
		Type: updaterequest.TypeOrganisationSignUpForm,
		Data: json.RawMessage(`{"name":"New Charity","slug":"new-charity"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Charity", name)
}

func TestOrganisationApplier_ApplyChildReplacementFailureAborts(t *testing.T) {
	t.Parallel()

	f := newOrgFixture()
	org := f.seedOrg()
	f.orgs.socialMediasErr = errors.New("social media write refused")

	u := existingOrgRequest(org.ID, `{"social_medias":[{"type":"facebook","url":"https://fb.example/acme"}]}`)
	_, err := f.applier.Apply(context.Background(), u)
	require.ErrorContains(t, err, "social media write refused")
}

func TestOrganisationApplier_ApplyMissingTargetFails(t *testing.T) {
	t.Parallel()

	f := newOrgFixture()
	missing := uuid.New()

	u := existingOrgRequest(missing, `{"name":"Ghost"}`)
	_, err := f.applier.Apply(context.Background(), u)
	assert.ErrorIs(t, err, organisation.ErrNotFound)
}
