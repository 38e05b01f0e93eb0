package design

import (
	"fmt"
	"slices"

	"github.com/aretw0/canopy/pkg/domain"
)

// AddElement inserts or silently overwrites an element.
// An overwritten element keeps its mailbox so existing listeners stay attached.
// An empty parent means the canvas root.
func (r *Runtime) AddElement(id string, state domain.ElementState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putLocked(id, state)
}

func (r *Runtime) putLocked(id string, state domain.ElementState) *element {
	state.ID = id
	if state.State.Parent == "" {
		state.State.Parent = domain.RootID
	}
	if el, ok := r.elements[id]; ok {
		el.ElementState = state
		return el
	}
	el := &element{ElementState: state, mailbox: NewMailbox()}
	r.elements[id] = el
	r.order = append(r.order, id)
	return el
}

// State returns a deep copy of every element, without mailboxes or mount handles.
func (r *Runtime) State() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(domain.Snapshot, len(r.elements))
	for id, el := range r.elements {
		out[id] = el.ElementState.Clone()
	}
	return out
}

// StateFor returns a deep copy of one element.
func (r *Runtime) StateFor(id string) (domain.ElementState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.elements[id]
	if !ok {
		return domain.ElementState{}, fmt.Errorf("fetching state for element %q: %w", id, domain.ErrElementNotFound)
	}
	return el.ElementState.Clone(), nil
}

// MailboxFor returns the notification mailbox of an element.
func (r *Runtime) MailboxFor(id string) (*Mailbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == domain.RootID {
		return r.root, nil
	}
	el, ok := r.elements[id]
	if !ok {
		return nil, fmt.Errorf("mailbox for element %q: %w", id, domain.ErrElementNotFound)
	}
	return el.mailbox, nil
}

// IsMounted reports whether a rendering surface acknowledged the element's mount.
func (r *Runtime) IsMounted(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.elements[id]
	return ok && el.mounted
}

// Len returns the number of elements in the store.
func (r *Runtime) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.elements)
}

// Children returns the direct children of id in creation order.
func (r *Runtime) Children(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reverseMapping()[id]
}

// RegisterChildAcceptor marks an element as able to hold children.
func (r *Runtime) RegisterChildAcceptor(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acceptors = append(r.acceptors, id)
}

// DeregisterChildAcceptor removes every registration of id.
func (r *Runtime) DeregisterChildAcceptor(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acceptors = slices.DeleteFunc(r.acceptors, func(a string) bool { return a == id })
}

// ChildAcceptors returns the registered child acceptors.
func (r *Runtime) ChildAcceptors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.acceptors)
}

// reverseMapping indexes the store by parent. Children keep creation order.
func (r *Runtime) reverseMapping() map[string][]string {
	m := make(map[string][]string)
	for _, id := range r.order {
		el, ok := r.elements[id]
		if !ok {
			continue
		}
		m[el.State.Parent] = append(m[el.State.Parent], id)
	}
	return m
}
