package observability_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/design"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func create(id, parent string) domain.Event {
	state := domain.NewState(parent)
	return domain.NewCreateEvent(domain.CreateData{ID: id, CompKey: "Container", State: &state})
}

func TestMetrics_RecordRuntimeActivity(t *testing.T) {
	m := observability.NewMetrics()
	rt := design.New(design.WithHooks(m.Hooks()))
	ctx := context.Background()

	require.NoError(t, rt.ApplyEvent(ctx, create("a", domain.RootID)))
	require.NoError(t, rt.ApplyEvent(ctx, create("b", domain.RootID)))
	require.NoError(t, rt.ApplyEvent(ctx, domain.NewDeleteEvent("a")))
	rt.MarkReady()
	require.NoError(t, rt.PopulateCanvas(ctx))
	require.NoError(t, rt.ApplyEvent(ctx, domain.NewPatchEvent("b", domain.ParentPatch("a"))))
	require.NoError(t, rt.ApplyEvent(ctx, domain.NewRenderedEvent("a")))

	expected := `
# HELP canopy_events_applied_total Total number of events applied to the design store
# TYPE canopy_events_applied_total counter
canopy_events_applied_total{type="CREATE"} 2
canopy_events_applied_total{type="PATCH"} 1
# HELP canopy_events_ignored_total Total number of events with no handler
# TYPE canopy_events_ignored_total counter
canopy_events_ignored_total{type="DELETE"} 1
# HELP canopy_wire_total Total number of wiring notifications sent to parents
# TYPE canopy_wire_total counter
canopy_wire_total{op="accept"} 3
canopy_wire_total{op="remove"} 1
# HELP canopy_pending_mounts Elements wired during the first render that have not acknowledged their mount
# TYPE canopy_pending_mounts gauge
canopy_pending_mounts 1
# HELP canopy_mounts_total Total number of mount acknowledgements
# TYPE canopy_mounts_total counter
canopy_mounts_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"canopy_events_applied_total", "canopy_events_ignored_total", "canopy_wire_total",
		"canopy_pending_mounts", "canopy_mounts_total"))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnPendingMounts(context.Background(), 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "canopy_pending_mounts 3")
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnMounted: func(ctx context.Context, id string) { calls = append(calls, "a:"+id) }}
	b := domain.LifecycleHooks{
		OnMounted: func(ctx context.Context, id string) { calls = append(calls, "b:"+id) },
		OnWire:    func(ctx context.Context, e domain.WireEvent) { calls = append(calls, "wire") },
	}

	h := observability.Combine(a, domain.LifecycleHooks{}, b)
	h.OnMounted(context.Background(), "x")
	h.OnWire(context.Background(), domain.WireEvent{})

	assert.Equal(t, []string{"a:x", "b:x", "wire"}, calls)
	assert.Nil(t, h.OnEventApplied)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	h := observability.LoggingHooks(logging.NewWithWriter(&buf, slog.LevelDebug))

	h.OnEventIgnored(context.Background(), domain.NewDeleteEvent("gone"))
	assert.Contains(t, buf.String(), "event_ignored")
	assert.Contains(t, buf.String(), "id=gone")
}
