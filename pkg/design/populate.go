package design

import (
	"context"
	"slices"

	"github.com/aretw0/canopy/pkg/domain"
)

// PopulateCanvas performs the first render. It waits for Ready, then wires the
// root's children. Each child's own children are wired only once that child
// acknowledges its mount, so the traversal is strictly parent-before-descendant.
// Live wiring is enabled as soon as the root's children are wired.
//
// There is no timeout: a child that never acknowledges leaves its subtree unwired.
func (r *Runtime) PopulateCanvas(ctx context.Context) error {
	select {
	case <-r.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.populated {
		return ErrAlreadyPopulated
	}
	r.populated = true
	r.children = r.reverseMapping()

	if err := r.populate(ctx, domain.RootID); err != nil {
		return err
	}
	r.firstRenderDone = true
	r.logger.Debug("First render wired root", "children", len(r.children[domain.RootID]))
	return nil
}

// populate registers a one-shot mount waiter for every child of node and wires it.
func (r *Runtime) populate(ctx context.Context, node string) error {
	kids := r.children[node]
	if len(kids) == 0 {
		return nil
	}
	for _, child := range kids {
		r.waiting[child] = struct{}{}
		if err := r.wire(ctx, node, child); err != nil {
			delete(r.waiting, child)
			r.reportPending(ctx)
			return err
		}
	}
	r.reportPending(ctx)
	return nil
}

// Acknowledge records that a rendering surface mounted id. If the first render
// is waiting on id, the waiter is removed and id's children are wired next.
func (r *Runtime) Acknowledge(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acknowledgeLocked(ctx, id)
}

func (r *Runtime) acknowledgeLocked(ctx context.Context, id string) error {
	if el, ok := r.elements[id]; ok {
		el.mounted = true
	}
	if r.hooks.OnMounted != nil {
		r.hooks.OnMounted(ctx, id)
	}

	if _, ok := r.waiting[id]; !ok {
		return nil
	}
	delete(r.waiting, id)
	r.reportPending(ctx)
	return r.populate(ctx, id)
}

// FirstRenderDone reports whether live wiring is enabled.
func (r *Runtime) FirstRenderDone() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firstRenderDone
}

// PendingMounts lists elements that were wired during the first render but
// have not acknowledged their mount yet.
func (r *Runtime) PendingMounts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.waiting))
	for id := range r.waiting {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (r *Runtime) reportPending(ctx context.Context) {
	if r.hooks.OnPendingMounts != nil {
		r.hooks.OnPendingMounts(ctx, len(r.waiting))
	}
}
