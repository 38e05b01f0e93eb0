package snapshot

import (
	"fmt"
	"slices"

	"github.com/aretw0/canopy/pkg/domain"
)

// Events converts a snapshot into CREATE events, parents before children.
// Siblings are ordered by ID so the output is deterministic. Elements whose
// parent is missing, or that sit on a cycle, are reported as errors.
func Events(snap domain.Snapshot) ([]domain.Event, error) {
	children := make(map[string][]string)
	for id, el := range snap {
		parent := el.State.Parent
		if parent == "" {
			parent = domain.RootID
		}
		if parent != domain.RootID {
			if _, ok := snap[parent]; !ok {
				return nil, fmt.Errorf("element %q: %w: %s", id, domain.ErrParentNotFound, parent)
			}
		}
		children[parent] = append(children[parent], id)
	}
	for _, kids := range children {
		slices.Sort(kids)
	}

	out := make([]domain.Event, 0, len(snap))
	queue := []string{domain.RootID}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, id := range children[node] {
			el := snap[id]
			state := el.State.Clone()
			out = append(out, domain.NewCreateEvent(domain.CreateData{
				ID:      id,
				CompKey: el.CompKey,
				Pkg:     el.Pkg,
				State:   &state,
			}))
			queue = append(queue, id)
		}
	}

	if len(out) != len(snap) {
		return nil, fmt.Errorf("%w: %d elements unreachable from %s", domain.ErrCycle, len(snap)-len(out), domain.RootID)
	}
	return out, nil
}
