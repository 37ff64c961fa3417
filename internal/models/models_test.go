package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectPatchTracksDescriptionPresence(t *testing.T) {
	var omitted ProjectPatch
	require.NoError(t, json.Unmarshal([]byte(`{"status":"paused"}`), &omitted))
	assert.False(t, omitted.Description.Set)

	var null ProjectPatch
	require.NoError(t, json.Unmarshal([]byte(`{"description":null}`), &null))
	assert.True(t, null.Description.Set)
	assert.Nil(t, null.Description.Value)

	var value ProjectPatch
	require.NoError(t, json.Unmarshal([]byte(`{"description":"notes"}`), &value))
	assert.Equal(t, SomeString("notes"), value.Description)

	var wrong ProjectPatch
	assert.Error(t, json.Unmarshal([]byte(`{"description":7}`), &wrong))
}
