package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
)

// LoggingHooks logs every lifecycle notification at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEventApplied: func(ctx context.Context, ev domain.Event) {
			logger.Debug("event_applied", "type", ev.Type, "id", ev.TargetID())
		},
		OnEventIgnored: func(ctx context.Context, ev domain.Event) {
			logger.Debug("event_ignored", "type", ev.Type, "id", ev.TargetID())
		},
		OnMounted: func(ctx context.Context, id string) {
			logger.Debug("element_mounted", "id", id)
		},
		OnPendingMounts: func(ctx context.Context, pending int) {
			logger.Debug("pending_mounts", "count", pending)
		},
	}
}

// Combine fans each notification out to every hook set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var applied, ignored []func(context.Context, domain.Event)
	var wires []func(context.Context, domain.WireEvent)
	var mounted []func(context.Context, string)
	var pending []func(context.Context, int)
	for _, h := range sets {
		if h.OnEventApplied != nil {
			applied = append(applied, h.OnEventApplied)
		}
		if h.OnEventIgnored != nil {
			ignored = append(ignored, h.OnEventIgnored)
		}
		if h.OnWire != nil {
			wires = append(wires, h.OnWire)
		}
		if h.OnMounted != nil {
			mounted = append(mounted, h.OnMounted)
		}
		if h.OnPendingMounts != nil {
			pending = append(pending, h.OnPendingMounts)
		}
	}

	if len(applied) > 0 {
		out.OnEventApplied = func(ctx context.Context, ev domain.Event) {
			for _, fn := range applied {
				fn(ctx, ev)
			}
		}
	}
	if len(ignored) > 0 {
		out.OnEventIgnored = func(ctx context.Context, ev domain.Event) {
			for _, fn := range ignored {
				fn(ctx, ev)
			}
		}
	}
	if len(wires) > 0 {
		out.OnWire = func(ctx context.Context, e domain.WireEvent) {
			for _, fn := range wires {
				fn(ctx, e)
			}
		}
	}
	if len(mounted) > 0 {
		out.OnMounted = func(ctx context.Context, id string) {
			for _, fn := range mounted {
				fn(ctx, id)
			}
		}
	}
	if len(pending) > 0 {
		out.OnPendingMounts = func(ctx context.Context, n int) {
			for _, fn := range pending {
				fn(ctx, n)
			}
		}
	}
	return out
}
