package design

import (
	"context"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
)

// CreateElement adds an element of kind compKey.
// A recorded element is sent to the backend log and only appears in the store
// once its CREATE comes back through the live feed. An unrecorded element exists
// only in this process (e.g. editor helpers on the canvas) and is applied at once.
// compKey must be registered; replayed CREATE events are not held to this.
func (r *Runtime) CreateElement(ctx context.Context, compKey string, state domain.State, recorded bool) (string, error) {
	if r.bus == nil {
		return "", ErrNoBus
	}
	if _, err := r.registry.Lookup(compKey); err != nil {
		return "", fmt.Errorf("creating element of kind %q: %w", compKey, domain.ErrUnknownComponent)
	}

	data := domain.CreateData{CompKey: compKey, Pkg: domain.DefaultPkg, State: &state}
	if recorded {
		return r.bus.PostCreateEvent(ctx, data)
	}

	id, err := r.bus.GetID(ctx)
	if err != nil {
		return "", err
	}
	data.ID = id
	if err := r.ApplyEvent(ctx, domain.NewCreateEvent(data)); err != nil {
		return "", err
	}
	return id, nil
}

// PatchState updates exactly the fields present in patch.
// A recorded patch is sent to the backend and applied when it loops back;
// otherwise it is applied immediately.
func (r *Runtime) PatchState(ctx context.Context, id string, patch domain.Patch, recorded bool) error {
	if recorded {
		if r.bus == nil {
			return ErrNoBus
		}
		return r.bus.PostPatchEvent(ctx, id, patch)
	}
	return r.ApplyEvent(ctx, domain.NewPatchEvent(id, patch))
}

// PatchStyle is PatchState for the style map only.
func (r *Runtime) PatchStyle(ctx context.Context, id string, style map[string]any, recorded bool) error {
	return r.PatchState(ctx, id, domain.StylePatch(style), recorded)
}

// PatchDevState mutates an element directly, bypassing events, notifications
// and wiring. It is reserved for development-only edits inside the canvas.
func (r *Runtime) PatchDevState(id string, patch domain.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.elements[id]
	if !ok {
		return fmt.Errorf("patching dev state of %q: %w", id, domain.ErrElementNotFound)
	}
	patch.Apply(&el.State)
	return nil
}
