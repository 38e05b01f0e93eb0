package design

import (
	"context"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
)

func (r *Runtime) mailboxOf(parent string) (*Mailbox, error) {
	if parent == domain.RootID {
		return r.root, nil
	}
	p, ok := r.elements[parent]
	if !ok {
		return nil, fmt.Errorf("parent %q: %w", parent, domain.ErrParentNotFound)
	}
	return p.mailbox, nil
}

// wire asks parent to accept and mount child.
func (r *Runtime) wire(ctx context.Context, parent, child string) error {
	mb, err := r.mailboxOf(parent)
	if err != nil {
		return err
	}
	mb.Send(Notification{Kind: AcceptChild, ChildID: child})
	r.notifyWire(ctx, domain.WireAccept, parent, child)
	return nil
}

// dewire asks parent to unmount child.
func (r *Runtime) dewire(ctx context.Context, parent, child string) error {
	mb, err := r.mailboxOf(parent)
	if err != nil {
		return err
	}
	mb.Send(Notification{Kind: RemoveChild, ChildID: child})
	r.notifyWire(ctx, domain.WireRemove, parent, child)
	return nil
}

// rewire moves child between parents. Removal always precedes acceptance so the
// child is never mounted twice.
func (r *Runtime) rewire(ctx context.Context, oldParent, newParent, child string) error {
	if oldParent == newParent {
		return nil
	}
	if err := r.dewire(ctx, oldParent, child); err != nil {
		return err
	}
	return r.wire(ctx, newParent, child)
}

func (r *Runtime) notifyWire(ctx context.Context, op domain.WireOp, parent, child string) {
	r.logger.Debug("Wiring", "op", op, "parent", parent, "child", child)
	if r.hooks.OnWire != nil {
		r.hooks.OnWire(ctx, domain.WireEvent{Op: op, ParentID: parent, ChildID: child})
	}
}
