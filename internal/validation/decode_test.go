package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeFixture struct {
	Name  *string  `json:"name"`
	Count *int64   `json:"count"`
	Tags  []string `json:"tags"`
}

func TestDecodeAcceptsAllPayloadShapes(t *testing.T) {
	want := "hello"

	var fromMap decodeFixture
	assert.True(t, decode(map[string]interface{}{"name": "hello"}, &fromMap).Empty())
	assert.Equal(t, want, *fromMap.Name)

	var fromBytes decodeFixture
	assert.True(t, decode([]byte(`{"name": "hello"}`), &fromBytes).Empty())
	assert.Equal(t, want, *fromBytes.Name)

	var fromRaw decodeFixture
	assert.True(t, decode(json.RawMessage(`{"name": "hello"}`), &fromRaw).Empty())
	assert.Equal(t, want, *fromRaw.Name)

	var fromStruct decodeFixture
	assert.True(t, decode(fromRaw, &fromStruct).Empty())
	assert.Equal(t, want, *fromStruct.Name)
}

func TestDecodeIssuePaths(t *testing.T) {
	var dst decodeFixture

	issues := decode(nil, &dst)
	require.Len(t, issues, 1)
	assert.Equal(t, "payload is required", issues[0].Message)

	issues = decode(map[string]interface{}{"count": "many"}, &dst)
	require.Len(t, issues, 1)
	assert.Equal(t, "count", issues[0].Path)
	assert.Equal(t, "has an invalid type", issues[0].Message)

	issues = decode(map[string]interface{}{"nmae": "typo"}, &dst)
	require.Len(t, issues, 1)
	assert.Equal(t, "nmae", issues[0].Path)
	assert.Equal(t, "is not a recognized field", issues[0].Message)

	issues = decode([]byte(`{broken`), &dst)
	require.Len(t, issues, 1)
	assert.Equal(t, "payload is not valid JSON", issues[0].Message)
}

func TestProvidedFieldsTracksPresence(t *testing.T) {
	in, err := ParseUpdateOpportunity(map[string]interface{}{
		"id":          "opp-1",
		"stage":       "new_lead",
		"contact_ids": []interface{}{1},
	})
	require.NoError(t, err)

	got := providedFields(in)
	assert.ElementsMatch(t, []string{"id", "stage", "contact_ids"}, got)
}

func TestSubsetOf(t *testing.T) {
	allowed := map[string]struct{}{"id": {}, "stage": {}}
	assert.True(t, subsetOf([]string{"id"}, allowed))
	assert.True(t, subsetOf(nil, allowed))
	assert.False(t, subsetOf([]string{"id", "name"}, allowed))
}
