package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_DecodeWireShape(t *testing.T) {
	raw := `[
		{"type": "CREATE", "payload": {"ID": "a", "compKey": "Button", "pkg": "design",
			"state": {"style": {"color": "red"}, "parent": "root"}}},
		{"type": "PATCH", "payload": {"ID": "a", "slice": {"parent": "b", "style": {"top": "1px"}}}},
		{"type": "DELETE", "payload": {"ID": "a"}},
		{"type": "ELEMENT_RENDERED", "payload": "a"}
	]`

	var events []domain.Event
	require.NoError(t, json.Unmarshal([]byte(raw), &events))
	require.Len(t, events, 4)

	create := events[0]
	assert.Equal(t, domain.EventCreate, create.Type)
	require.NotNil(t, create.Create)
	assert.Equal(t, "Button", create.Create.CompKey)
	assert.Equal(t, "red", create.Create.State.Style["color"])
	assert.Equal(t, "a", create.TargetID())

	patch := events[1]
	require.NotNil(t, patch.Patch)
	require.NotNil(t, patch.Patch.Slice.Parent)
	assert.Equal(t, "b", *patch.Patch.Slice.Parent)
	assert.Nil(t, patch.Patch.Slice.Properties)

	assert.Equal(t, domain.EventDelete, events[2].Type)
	assert.Equal(t, "a", events[2].TargetID())
	assert.Equal(t, "a", events[3].ID)
}

func TestEvent_EncodeKeepsPayloadEnvelope(t *testing.T) {
	ev := domain.NewPatchEvent("x", domain.StylePatch(map[string]any{"left": "2px"}))

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "PATCH", generic["type"])
	payload := generic["payload"].(map[string]any)
	assert.Equal(t, "x", payload["ID"])
	slice := payload["slice"].(map[string]any)
	assert.NotContains(t, slice, "parent")

	var back domain.Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ev.Patch.ID, back.Patch.ID)
	assert.Equal(t, "2px", back.Patch.Slice.Style["left"])
}

func TestEvent_MarshalRejectsMissingPayload(t *testing.T) {
	_, err := json.Marshal(domain.Event{Type: domain.EventCreate})
	assert.Error(t, err)
}
