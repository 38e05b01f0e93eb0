package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/design"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/dsl"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_EventsParentFirst(t *testing.T) {
	b := dsl.New()
	b.Add("z-title", "Text").In("card").Prop("text", "Hi")
	b.Add("card", "Container").Style("padding", "8px").
		Add("a-button", "Button").Alias("cta")

	events, err := b.Events()
	require.NoError(t, err)
	require.Len(t, events, 3)

	var ids []string
	for _, ev := range events {
		require.Equal(t, domain.EventCreate, ev.Type)
		ids = append(ids, ev.TargetID())
	}
	assert.Equal(t, []string{"card", "a-button", "z-title"}, ids)
	assert.Nil(t, events[1].Create.State.Properties, "unset maps stay nil")
	assert.Equal(t, "cta", events[1].Create.State.Alias)
}

func TestBuilder_AddIsIdempotent(t *testing.T) {
	b := dsl.New()
	first := b.Add("x", "Text")
	assert.Same(t, first, b.Add("x", "Button"))
	assert.Len(t, b.Snapshot(), 1)
	assert.Equal(t, "Text", b.Snapshot()["x"].CompKey)
}

func TestBuilder_MissingParent(t *testing.T) {
	b := dsl.New()
	b.Add("orphan", "Text").In("ghost")

	_, err := b.Events()
	assert.ErrorIs(t, err, domain.ErrParentNotFound)
}

func TestBuilder_Cycle(t *testing.T) {
	b := dsl.New()
	b.Add("a", "Container").In("b")
	b.Add("b", "Container").In("a")

	_, err := b.Build()
	assert.ErrorIs(t, err, domain.ErrCycle)
}

func TestBuilder_DefaultsSurviveReplay(t *testing.T) {
	b := dsl.New()
	b.Add("card", "Container").Style("padding", "8px")
	b.Add("btn", "Button").In("card")

	events, err := b.Events()
	require.NoError(t, err)

	rt := design.New(design.WithRegistry(registry.Builtin()))
	for _, ev := range events {
		require.NoError(t, rt.ApplyEvent(context.Background(), ev))
	}

	card, err := rt.StateFor("card")
	require.NoError(t, err)
	assert.Equal(t, "8px", card.State.Style["padding"])

	btn, err := rt.StateFor("btn")
	require.NoError(t, err)
	assert.Equal(t, "card", btn.State.Parent)
	assert.Equal(t, "Button", btn.State.Properties["text"])
}

func TestBuilder_Build(t *testing.T) {
	b := dsl.New()
	b.Add("a", "Text")

	log, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 1, log.Len())
}
