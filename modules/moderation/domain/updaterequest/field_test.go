package updaterequest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_AbsentNullAndValue(t *testing.T) {
	t.Parallel()

	var doc struct {
		Name  Field[string] `json:"name"`
		Email Field[string] `json:"email"`
		Phone Field[string] `json:"phone"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Acme","email":null}`), &doc))

	v, ok := doc.Name.Value()
	require.True(t, ok)
	assert.Equal(t, "Acme", v)
	assert.True(t, doc.Name.IsSet())
	assert.False(t, doc.Name.IsNull())

	assert.True(t, doc.Email.IsSet())
	assert.True(t, doc.Email.IsNull())
	_, ok = doc.Email.Value()
	assert.False(t, ok)

	assert.False(t, doc.Phone.IsSet())
	assert.False(t, doc.Phone.IsNull())
	assert.Nil(t, doc.Phone.Ptr())
}

func TestField_Constructors(t *testing.T) {
	t.Parallel()

	set := Set(42)
	v, ok := set.Value()
	require.True(t, ok)
	assert.Equal(t, 42, v)
	require.NotNil(t, set.Ptr())
	assert.Equal(t, 42, *set.Ptr())

	null := Null[int]()
	assert.True(t, null.IsSet())
	assert.True(t, null.IsNull())
	assert.Nil(t, null.Ptr())
}

func TestField_SliceValues(t *testing.T) {
	t.Parallel()

	var doc struct {
		Tags Field[[]string] `json:"tags"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tags":[]}`), &doc))

	v, ok := doc.Tags.Value()
	require.True(t, ok)
	assert.NotNil(t, v)
	assert.Empty(t, v)
}
