package design_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/bus"
	"github.com/aretw0/canopy/pkg/design"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	rt  *design.Runtime
	bus *bus.Bus
	log *memory.EventLog
}

func startRuntime(t *testing.T, seed ...domain.Event) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	log := memory.NewEventLog(seed...)
	b := bus.New(log, memory.NewIDSource(), bus.WithIDBatch(4))
	rt := design.New(design.WithBus(b), design.WithRegistry(registry.Builtin()))

	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()
	require.NoError(t, b.Start(ctx))

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Run did not stop after cancel")
		}
	})

	select {
	case <-rt.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("runtime never became ready")
	}
	return &harness{rt: rt, bus: b, log: log}
}

func TestRuntime_RunAppliesStartupBeforeReady(t *testing.T) {
	h := startRuntime(t,
		create("a", "Container", domain.RootID),
		create("b", "Button", "a"),
		domain.NewPatchEvent("b", domain.StylePatch(map[string]any{"top": "4px"})),
	)

	snap := h.rt.State()
	require.Len(t, snap, 2)
	assert.Equal(t, "4px", snap["b"].State.Style["top"])
	assert.False(t, h.rt.FirstRenderDone())
}

func TestRuntime_RecordedCreateRoundTrips(t *testing.T) {
	h := startRuntime(t)
	ctx := context.Background()

	id, err := h.rt.CreateElement(ctx, "Text", domain.NewState(domain.RootID), true)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, 1, h.log.Len())

	assert.Eventually(t, func() bool {
		_, err := h.rt.StateFor(id)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.rt.PatchStyle(ctx, id, map[string]any{"color": "blue"}, true))
	assert.Eventually(t, func() bool {
		el, _ := h.rt.StateFor(id)
		return el.State.Style["color"] == "blue"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, h.log.Len())
}

func TestRuntime_UnrecordedCreateIsLocal(t *testing.T) {
	h := startRuntime(t)
	ctx := context.Background()

	first, err := h.rt.CreateElement(ctx, "Button", domain.NewState(domain.RootID), false)
	require.NoError(t, err)
	second, err := h.rt.CreateElement(ctx, "Button", domain.NewState(domain.RootID), false)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, h.rt.Len())
	assert.Zero(t, h.log.Len(), "unrecorded elements never reach the log")
}

func TestRuntime_CreateElementRejectsUnknownComponent(t *testing.T) {
	h := startRuntime(t)
	ctx := context.Background()

	for _, recorded := range []bool{true, false} {
		_, err := h.rt.CreateElement(ctx, "Carousel", domain.NewState(domain.RootID), recorded)
		assert.ErrorIs(t, err, domain.ErrUnknownComponent)
	}
	assert.Zero(t, h.rt.Len())
	assert.Zero(t, h.log.Len())

	require.NoError(t, h.rt.ApplyEvent(ctx, create("legacy", "Carousel", domain.RootID)))
	el, err := h.rt.StateFor("legacy")
	require.NoError(t, err)
	assert.Equal(t, "Carousel", el.CompKey, "replayed events keep unknown kinds")
}

func TestRuntime_RenderedEventsDriveFirstRender(t *testing.T) {
	h := startRuntime(t,
		create("a", "Container", domain.RootID),
		create("a1", "Text", "a"),
	)
	ctx := context.Background()
	require.NoError(t, h.rt.PopulateCanvas(ctx))

	mbA, err := h.rt.MailboxFor("a")
	require.NoError(t, err)

	require.NoError(t, h.bus.Rendered(ctx, "a"))

	n, err := receive(t, mbA)
	require.NoError(t, err)
	assert.Equal(t, design.AcceptChild, n.Kind)
	assert.Equal(t, "a1", n.ChildID)
	assert.Zero(t, h.log.Len(), "render acknowledgements are never recorded")
}

func TestRuntime_NoBus(t *testing.T) {
	rt := design.New()
	ctx := context.Background()

	_, err := rt.CreateElement(ctx, "Button", domain.State{}, false)
	assert.ErrorIs(t, err, design.ErrNoBus)
	assert.ErrorIs(t, rt.PatchStyle(ctx, "x", nil, true), design.ErrNoBus)
	assert.ErrorIs(t, rt.Run(ctx), design.ErrNoBus)
}

func receive(t *testing.T, mb *design.Mailbox) (design.Notification, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return mb.Receive(ctx)
}
