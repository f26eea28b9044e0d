package appliers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOver(t *testing.T) {
	t.Parallel()

	snapshot := []byte(`{"name":"Old","url":"https://old.example","tags":["a","b"]}`)

	merged, err := mergeOver(snapshot, []byte(`{"name":"New"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"New","url":"https://old.example","tags":["a","b"]}`, string(merged))

	merged, err = mergeOver(snapshot, []byte(`{"url":null}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Old","tags":["a","b"]}`, string(merged))

	// Arrays are replaced wholesale, never merged element-wise.
	merged, err = mergeOver(snapshot, []byte(`{"tags":["c"]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Old","url":"https://old.example","tags":["c"]}`, string(merged))
}

func TestValidateStructFieldNames(t *testing.T) {
	t.Parallel()

	type input struct {
		Name         string `json:"name" validate:"required"`
		ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	}

	err := validateStruct(&input{ContactEmail: "not-an-email"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "contact_email")

	assert.NoError(t, validateStruct(&input{Name: "ok"}))
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.For("organisation")
	assert.Error(t, err)
}
