// ABOUTME: Tests for the coordinated-dispatch merge policy.
// ABOUTME: Covers dedup capping, patch precedence, and failure wording.

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/voyager-gateway/internal/capability"
)

func ok(name, message string, suggestions []string, patch map[string]any) providerResult {
	return providerResult{
		name: name,
		resp: &capability.Response{
			Success:      true,
			Message:      message,
			Data:         map[string]any{"payload": name},
			Suggestions:  suggestions,
			ContextPatch: patch,
		},
	}
}

func TestMerge_SuggestionsCapped(t *testing.T) {
	resp := merge([]providerResult{
		ok("flight", "flights", []string{"a", "b", "c"}, nil),
		ok("hotel", "hotels", []string{"c", "d", "e", "f"}, nil),
	})

	require.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, resp.Suggestions,
		"deduplicated, first-provider-first, capped at five")
}

func TestMerge_PatchLastWriteWins(t *testing.T) {
	resp := merge([]providerResult{
		ok("flight", "flights", nil, map[string]any{"destination": "Paris", "origin": "Berlin"}),
		ok("hotel", "hotels", nil, map[string]any{"destination": "Paris, France"}),
	})

	assert.Equal(t, "Paris, France", resp.ContextPatch["destination"])
	assert.Equal(t, "Berlin", resp.ContextPatch["origin"])
}

func TestMerge_UnsuccessfulResponseCountsAsFailed(t *testing.T) {
	resp := merge([]providerResult{
		ok("flight", "flights found", nil, nil),
		{name: "restaurant", resp: &capability.Response{Success: false, Message: "not found"}},
	})

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "had trouble with restaurant")
	assert.NotContains(t, resp.Data, "restaurant")
}

func TestMerge_AllFailed(t *testing.T) {
	resp := merge([]providerResult{
		{name: "flight"},
		{name: "hotel"},
	})

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.NotEmpty(t, resp.Message)
}

func TestMerge_DataKeyedByProvider(t *testing.T) {
	resp := merge([]providerResult{
		ok("flight", "flights", nil, nil),
		ok("excursion", "tours", nil, nil),
	})

	require.Len(t, resp.Data, 2)
	flightData := resp.Data["flight"].(map[string]any)
	assert.Equal(t, "flight", flightData["payload"])
}
