package domain

import "context"

// WireOp distinguishes attach and detach notifications.
type WireOp string

const (
	WireAccept WireOp = "accept"
	WireRemove WireOp = "remove"
)

// WireEvent describes a single parent/child notification.
type WireEvent struct {
	Op       WireOp
	ParentID string
	ChildID  string
}

// LifecycleHooks defines callbacks for runtime observability.
// Every field is optional.
type LifecycleHooks struct {
	OnEventApplied  func(context.Context, Event)
	OnEventIgnored  func(context.Context, Event)
	OnWire          func(context.Context, WireEvent)
	OnMounted       func(ctx context.Context, id string)
	// OnPendingMounts reports how many wired elements still await a mount acknowledgment.
	OnPendingMounts func(ctx context.Context, pending int)
}
