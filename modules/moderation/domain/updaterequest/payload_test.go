package updaterequest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePayload(t *testing.T) {
	t.Parallel()

	m, err := NormalizePayload([]byte(`{"name":"Acme"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Acme"}, m)

	_, err = NormalizePayload([]byte(`{}`))
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = NormalizePayload([]byte(`null`))
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = NormalizePayload(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = NormalizePayload([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestTypeMetadata(t *testing.T) {
	t.Parallel()

	cases := []struct {
		t     Type
		kind  string
		isNew bool
	}{
		{TypeOrganisation, "organisation", false},
		{TypeNewOrganisationByAdmin, "organisation", true},
		{TypeOrganisationSignUpForm, "organisation", true},
		{TypeService, "service", false},
		{TypeNewServiceByOrgAdmin, "service", true},
		{TypePage, "page", false},
		{TypeNewPage, "page", true},
		{TypeEvent, "event", false},
		{TypeNewEvent, "event", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.t.Kind(), string(tc.t))
		assert.Equal(t, tc.isNew, tc.t.IsNew(), string(tc.t))

		parsed, err := ParseType(string(tc.t))
		require.NoError(t, err)
		assert.Equal(t, tc.t, parsed)
	}

	_, err := ParseType("unknown-kind")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestUpdateRequestState(t *testing.T) {
	t.Parallel()

	u := &UpdateRequest{}
	assert.True(t, u.IsPending())
	assert.False(t, u.IsExisting())
}
