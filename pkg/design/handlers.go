package design

import (
	"context"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
)

// newElementState builds an element from its manifest defaults, overridden by
// whatever the CREATE payload carries. Unknown component keys start empty.
func (r *Runtime) newElementState(data domain.CreateData) domain.ElementState {
	defaults := domain.NewState(domain.RootID)
	if manifest, err := r.registry.Lookup(data.CompKey); err == nil {
		d := manifest.Defaults.Clone()
		defaults.Style, defaults.Properties, defaults.Appearance = d.Style, d.Properties, d.Appearance
		defaults.Alias = d.Alias
	} else {
		r.logger.Debug("Creating element of unregistered kind", "comp_key", data.CompKey, "id", data.ID)
	}

	state := defaults
	if in := data.State; in != nil {
		c := in.Clone()
		if in.Style != nil {
			state.Style = c.Style
		}
		if in.Properties != nil {
			state.Properties = c.Properties
		}
		if in.Appearance != nil {
			state.Appearance = c.Appearance
		}
		if in.Parent != "" {
			state.Parent = in.Parent
		}
		if in.Alias != "" {
			state.Alias = in.Alias
		}
	}

	pkg := data.Pkg
	if pkg == "" {
		pkg = domain.DefaultPkg
	}
	return domain.ElementState{ID: data.ID, CompKey: data.CompKey, Pkg: pkg, State: state}
}

func (r *Runtime) handleCreate(ctx context.Context, data domain.CreateData) error {
	if data.ID == "" {
		return fmt.Errorf("CREATE event without element ID")
	}
	state := r.newElementState(data)
	if err := r.checkParent(data.ID, state.State.Parent); err != nil {
		return err
	}
	el := r.putLocked(data.ID, state)

	if r.firstRenderDone {
		return r.wire(ctx, el.State.Parent, data.ID)
	}
	return nil
}

func (r *Runtime) handlePatch(ctx context.Context, id string, patch domain.Patch) error {
	el, ok := r.elements[id]
	if !ok {
		return fmt.Errorf("patching element %q: %w", id, domain.ErrElementNotFound)
	}

	if patch.Parent != nil && *patch.Parent == "" {
		root := domain.RootID
		patch.Parent = &root
	}
	oldParent := el.State.Parent
	moving := patch.Parent != nil && *patch.Parent != oldParent
	if moving {
		if err := r.checkParent(id, *patch.Parent); err != nil {
			return err
		}
	}

	if patch.HasData() {
		data := patch
		data.Parent = nil
		data.Apply(&el.State)
		if r.firstRenderDone {
			state := el.State.Clone()
			el.mailbox.Send(Notification{Kind: StateChanged, State: &state})
		}
	}

	if patch.Parent != nil {
		el.State.Parent = *patch.Parent
		if r.firstRenderDone {
			return r.rewire(ctx, oldParent, el.State.Parent, id)
		}
	}
	return nil
}

// checkParent rejects parents that do not exist or that sit below id.
// It covers both moves and CREATE collisions, where id may already be stored.
func (r *Runtime) checkParent(id, parent string) error {
	for cur, steps := parent, 0; cur != domain.RootID; steps++ {
		if cur == id || steps > len(r.elements) {
			return fmt.Errorf("placing %q under %q: %w", id, parent, domain.ErrCycle)
		}
		p, ok := r.elements[cur]
		if !ok {
			return fmt.Errorf("placing %q under %q: %w", id, parent, domain.ErrParentNotFound)
		}
		cur = p.State.Parent
	}
	return nil
}
