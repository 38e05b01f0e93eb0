package design_test

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/design"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/stretchr/testify/require"
)

func create(id, compKey, parent string) domain.Event {
	state := domain.State{Parent: parent}
	return domain.NewCreateEvent(domain.CreateData{ID: id, CompKey: compKey, Pkg: domain.DefaultPkg, State: &state})
}

// wireRecorder captures wiring notifications in order.
type wireRecorder struct {
	events []domain.WireEvent
}

func (w *wireRecorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnWire: func(ctx context.Context, e domain.WireEvent) {
			w.events = append(w.events, e)
		},
	}
}

func (w *wireRecorder) reset() {
	w.events = nil
}

// newLocalRuntime builds a runtime fed by direct ApplyEvent calls.
func newLocalRuntime(t *testing.T, rec *wireRecorder, events ...domain.Event) *design.Runtime {
	t.Helper()
	opts := []design.Option{design.WithRegistry(registry.Builtin())}
	if rec != nil {
		opts = append(opts, design.WithHooks(rec.hooks()))
	}
	rt := design.New(opts...)
	for _, ev := range events {
		require.NoError(t, rt.ApplyEvent(context.Background(), ev))
	}
	rt.MarkReady()
	return rt
}

func kinds(ns []design.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = string(n.Kind) + ":" + n.ChildID
	}
	return out
}
