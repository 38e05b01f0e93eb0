package dsl

import (
	"fmt"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/snapshot"
)

// Builder manages the tree construction.
type Builder struct {
	elements map[string]*ElementBuilder
}

// New creates a new tree builder.
func New() *Builder {
	return &Builder{
		elements: make(map[string]*ElementBuilder),
	}
}

// Add creates a new top-level element.
// If the element already exists, it returns the existing builder.
func (b *Builder) Add(id, compKey string) *ElementBuilder {
	if eb, ok := b.elements[id]; ok {
		return eb
	}
	eb := &ElementBuilder{
		id:      id,
		compKey: compKey,
		pkg:     domain.DefaultPkg,
		state:   domain.State{Parent: domain.RootID},
		builder: b,
	}
	b.elements[id] = eb
	return eb
}

// Snapshot returns the tree as a snapshot. Unset maps are empty.
func (b *Builder) Snapshot() domain.Snapshot {
	snap := make(domain.Snapshot, len(b.elements))
	for id, eb := range b.elements {
		snap[id] = domain.ElementState{ID: id, CompKey: eb.compKey, Pkg: eb.pkg, State: eb.state.Clone()}
	}
	return snap
}

// Events compiles the tree into CREATE events, parents first.
func (b *Builder) Events() ([]domain.Event, error) {
	ordered, err := snapshot.Events(b.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("invalid tree: %w", err)
	}
	for i, ev := range ordered {
		// Keep unset maps nil so catalog defaults still apply.
		state := b.elements[ev.Create.ID].state
		ordered[i].Create.State = &state
	}
	return ordered, nil
}

// Build compiles the tree into a seeded in-memory event log.
func (b *Builder) Build() (*memory.EventLog, error) {
	events, err := b.Events()
	if err != nil {
		return nil, err
	}
	return memory.NewEventLog(events...), nil
}
