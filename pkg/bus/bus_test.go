package bus_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/bus"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createEvent(id, parent string) domain.Event {
	state := domain.NewState(parent)
	return domain.NewCreateEvent(domain.CreateData{ID: id, CompKey: "Button", Pkg: domain.DefaultPkg, State: &state})
}

func next(t *testing.T, ch <-chan domain.Event) domain.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "live feed closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for live event")
		return domain.Event{}
	}
}

func TestBus_StartupThenLive(t *testing.T) {
	log := memory.NewEventLog(createEvent("a", domain.RootID), createEvent("b", "a"))
	b := bus.New(log, memory.NewIDSource())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	select {
	case <-b.Ready():
		t.Fatal("bus should not be ready before Start")
	default:
	}

	require.NoError(t, b.Start(ctx))
	<-b.Ready()

	startup := b.Startup()
	require.Len(t, startup, 2)
	assert.Equal(t, "a", startup[0].TargetID())
	assert.Equal(t, "b", startup[1].TargetID())
	assert.Equal(t, "2", b.Cursor())

	_, err := log.Append(ctx, createEvent("c", domain.RootID))
	require.NoError(t, err)

	ev := next(t, b.Events())
	assert.Equal(t, "c", ev.TargetID(), "startup events must not be replayed on the live feed")
	assert.Eventually(t, func() bool { return b.Cursor() == "3" }, time.Second, 10*time.Millisecond)
}

func TestBus_StartTwice(t *testing.T) {
	b := bus.New(memory.NewEventLog(), memory.NewIDSource())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, b.Start(ctx))
	assert.ErrorIs(t, b.Start(ctx), bus.ErrAlreadyStarted)
}

func TestBus_RecordedPublishLoopsBack(t *testing.T) {
	log := memory.NewEventLog()
	b := bus.New(log, memory.NewIDSource())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, b.Start(ctx))

	id, err := b.PostCreateEvent(ctx, domain.CreateData{CompKey: "Button", ID: "ignored"})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", id)

	require.NoError(t, b.PostPatchEvent(ctx, id, domain.StylePatch(map[string]any{"top": "4px"})))

	created := next(t, b.Events())
	require.Equal(t, domain.EventCreate, created.Type)
	assert.Equal(t, id, created.Create.ID)
	assert.Equal(t, domain.DefaultPkg, created.Create.Pkg)

	patched := next(t, b.Events())
	require.Equal(t, domain.EventPatch, patched.Type)
	assert.Equal(t, "4px", patched.Patch.Slice.Style["top"])

	assert.Equal(t, 2, log.Len())
}

func TestBus_UnrecordedPublishSkipsLog(t *testing.T) {
	log := memory.NewEventLog()
	b := bus.New(log, memory.NewIDSource())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, b.Start(ctx))

	require.NoError(t, b.Rendered(ctx, "x"))

	ev := next(t, b.Events())
	assert.Equal(t, domain.EventElementRendered, ev.Type)
	assert.Equal(t, "x", ev.ID)
	assert.Equal(t, 0, log.Len())
}

func TestBus_EventsClosedOnCancel(t *testing.T) {
	b := bus.New(memory.NewEventLog(), memory.NewIDSource())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, b.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-b.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

type failingIDs struct{}

func (failingIDs) NextIDs(ctx context.Context, n int) ([]string, error) {
	return nil, errors.New("pool offline")
}

func TestBus_StartFailsWithoutIDPool(t *testing.T) {
	b := bus.New(memory.NewEventLog(), failingIDs{})
	err := b.Start(context.Background())
	assert.ErrorContains(t, err, "pool offline")
}

func TestBus_NonPositiveIDBatchUsesDefault(t *testing.T) {
	for _, n := range []int{0, -5} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			src := &countingIDs{}
			b := bus.New(memory.NewEventLog(), src, bus.WithIDBatch(n))
			require.NoError(t, b.Start(ctx))
			assert.Equal(t, bus.DefaultIDBatch, src.next)

			id, err := b.GetID(ctx)
			require.NoError(t, err)
			assert.Equal(t, "id-1", id)
			assert.Equal(t, 1, src.calls)
		})
	}
}
