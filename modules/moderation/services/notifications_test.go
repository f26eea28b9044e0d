package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/user"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
	"github.com/openplaces/directory-sdk/pkg/notifications"
)

func testSubmitter() *user.User {
	return &user.User{
		ID:    uuid.New(),
		Name:  "Sam",
		Email: "sam@example.com",
		Role:  user.RoleMember,
	}
}

func kindsOf(ns []notifications.Notification) []notifications.Kind {
	out := make([]notifications.Kind, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Kind)
	}
	return out
}

func TestCreatedNotifications_ExistingEntity(t *testing.T) {
	t.Parallel()

	target := uuid.New()
	u := &updaterequest.UpdateRequest{
		ID:           uuid.New(),
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &target,
	}
	submitter := testSubmitter()
	admins := []string{"admin1@example.com", "admin2@example.com"}

	ns := createdNotifications(u, submitter, admins, "Acme Advice Centre")
	require.Len(t, ns, 3)
	assert.Equal(t, notifications.KindUpdateRequestReceived, ns[0].Kind)
	assert.Equal(t, submitter.Email, ns[0].To)
	assert.Equal(t, notifications.KindUpdateRequestAdminReceived, ns[1].Kind)
	assert.Equal(t, "admin1@example.com", ns[1].To)
	assert.Equal(t, "admin2@example.com", ns[2].To)

	assert.Equal(t, "Sam", ns[0].Vars["name"])
	assert.Equal(t, "organisation", ns[0].Vars["resource"])
	assert.Equal(t, u.ID.String(), ns[0].Vars["request_id"])

	// Admins see which entity the request is about, not just its kind.
	assert.Equal(t, "Acme Advice Centre", ns[1].Vars["resource_name"])
	assert.Equal(t, "Acme Advice Centre", ns[0].Vars["resource_name"])
}

func TestCreatedNotifications_SignUpForm(t *testing.T) {
	t.Parallel()

	u := &updaterequest.UpdateRequest{
		ID:   uuid.New(),
		Type: updaterequest.TypeOrganisationSignUpForm,
	}
	ns := createdNotifications(u, testSubmitter(), []string{"admin@example.com"}, "New Charity")
	assert.Equal(t, []notifications.Kind{
		notifications.KindSignUpReceived,
		notifications.KindSignUpAdminReceived,
	}, kindsOf(ns))
	require.Len(t, ns, 2)
	assert.Equal(t, "New Charity", ns[1].Vars["resource_name"])
}

func TestCreatedNotifications_AdminRaisedNewEntityIsSilent(t *testing.T) {
	t.Parallel()

	for _, typ := range []updaterequest.Type{
		updaterequest.TypeNewOrganisationByAdmin,
		updaterequest.TypeNewServiceByOrgAdmin,
		updaterequest.TypeNewPage,
		updaterequest.TypeNewEvent,
	} {
		u := &updaterequest.UpdateRequest{ID: uuid.New(), Type: typ}
		assert.Empty(t, createdNotifications(u, testSubmitter(), []string{"admin@example.com"}, "Backlog Item"), string(typ))
	}
}

func TestActionedNotifications_RejectionCarriesReason(t *testing.T) {
	t.Parallel()

	target := uuid.New()
	u := &updaterequest.UpdateRequest{
		ID:           uuid.New(),
		Type:         updaterequest.TypeService,
		UpdateableID: &target,
	}
	submitter := testSubmitter()
	reason := "duplicate of an existing listing"

	ns := actionedNotifications(u, submitter, notifications.KindUpdateRequestRejected, &reason, "Debt Advice Drop-in")
	require.Len(t, ns, 1)
	assert.Equal(t, notifications.KindUpdateRequestRejected, ns[0].Kind)
	assert.Equal(t, submitter.Email, ns[0].To)
	assert.Equal(t, reason, ns[0].Vars["reason"])
	assert.Equal(t, "Debt Advice Drop-in", ns[0].Vars["resource_name"])

	approved := actionedNotifications(u, submitter, notifications.KindUpdateRequestApproved, nil, "Debt Advice Drop-in")
	require.Len(t, approved, 1)
	assert.NotContains(t, approved[0].Vars, "reason")
}
