package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// EventLogContractTest is a reusable test suite that verifies if an adapter complies with ports.EventLog.
// newLog must return an empty log on every call.
func EventLogContractTest(t *testing.T, newLog func(t *testing.T) ports.EventLog) {
	t.Helper()

	create := func(id, parent string) domain.Event {
		state := domain.NewState(parent)
		return domain.NewCreateEvent(domain.CreateData{ID: id, CompKey: "Button", Pkg: domain.DefaultPkg, State: &state})
	}

	t.Run("Fetch_Empty", func(t *testing.T) {
		log := newLog(t)
		records, err := log.Fetch(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Append_PreservesOrder", func(t *testing.T) {
		log := newLog(t)
		ctx := context.Background()

		appended, err := log.Append(ctx, create("a", domain.RootID), create("b", "a"))
		require.NoError(t, err)
		require.Len(t, appended, 2)
		assert.NotEmpty(t, appended[0].Seq)
		assert.NotEqual(t, appended[0].Seq, appended[1].Seq)

		_, err = log.Append(ctx, domain.NewPatchEvent("a", domain.StylePatch(map[string]any{"top": "1px"})))
		require.NoError(t, err)

		records, err := log.Fetch(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "a", records[0].Event.TargetID())
		assert.Equal(t, "b", records[1].Event.TargetID())
		assert.Equal(t, domain.EventPatch, records[2].Event.Type)
		assert.Equal(t, "1px", records[2].Event.Patch.Slice.Style["top"])
	})

	t.Run("Subscribe_AfterCursor", func(t *testing.T) {
		log := newLog(t)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := log.Append(ctx, create("old", domain.RootID))
		require.NoError(t, err)
		startup, err := log.Fetch(ctx)
		require.NoError(t, err)
		require.Len(t, startup, 1)

		live, err := log.Subscribe(ctx, startup[len(startup)-1].Seq)
		require.NoError(t, err)

		_, err = log.Append(ctx, create("new-1", domain.RootID), create("new-2", domain.RootID))
		require.NoError(t, err)

		var got []string
		for len(got) < 2 {
			select {
			case rec, ok := <-live:
				require.True(t, ok, "live channel closed early")
				got = append(got, rec.Event.TargetID())
			case <-ctx.Done():
				t.Fatalf("timed out waiting for live events, got %v", got)
			}
		}
		assert.Equal(t, []string{"new-1", "new-2"}, got)
	})

	t.Run("Subscribe_ClosesOnCancel", func(t *testing.T) {
		log := newLog(t)
		ctx, cancel := context.WithCancel(context.Background())

		live, err := log.Subscribe(ctx, "")
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-live:
			for ok {
				_, ok = <-live
			}
		case <-time.After(5 * time.Second):
			t.Fatal("live channel was not closed after cancel")
		}
	})
}
