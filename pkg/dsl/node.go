package dsl

import "github.com/aretw0/canopy/pkg/domain"

// ElementBuilder provides a fluent API for configuring an element.
type ElementBuilder struct {
	id      string
	compKey string
	pkg     string
	state   domain.State
	builder *Builder
}

// In attaches the element to parent.
func (e *ElementBuilder) In(parent string) *ElementBuilder {
	e.state.Parent = parent
	return e
}

// Pkg overrides the package the component key belongs to.
func (e *ElementBuilder) Pkg(pkg string) *ElementBuilder {
	e.pkg = pkg
	return e
}

// Alias sets the display name of the element.
func (e *ElementBuilder) Alias(alias string) *ElementBuilder {
	e.state.Alias = alias
	return e
}

// Style sets one style value.
func (e *ElementBuilder) Style(key string, value any) *ElementBuilder {
	e.state.Style = set(e.state.Style, key, value)
	return e
}

// Prop sets one property value.
func (e *ElementBuilder) Prop(key string, value any) *ElementBuilder {
	e.state.Properties = set(e.state.Properties, key, value)
	return e
}

// Appearance sets one appearance value.
func (e *ElementBuilder) Appearance(key string, value any) *ElementBuilder {
	e.state.Appearance = set(e.state.Appearance, key, value)
	return e
}

// Add is a shortcut for adding a child of this element.
func (e *ElementBuilder) Add(id, compKey string) *ElementBuilder {
	return e.builder.Add(id, compKey).In(e.id)
}

func set(m map[string]any, key string, value any) map[string]any {
	if m == nil {
		m = make(map[string]any)
	}
	m[key] = value
	return m
}
