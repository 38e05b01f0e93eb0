package design

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
)

// ErrNoBus is returned by operations that need the event bus when none was configured.
var ErrNoBus = errors.New("design runtime has no event bus")

// ErrAlreadyPopulated is returned when the canvas is populated a second time.
var ErrAlreadyPopulated = errors.New("canvas already populated")

// EventBus is the part of bus.Bus the runtime depends on.
type EventBus interface {
	Ready() <-chan struct{}
	Startup() []domain.Event
	Events() <-chan domain.Event
	GetID(ctx context.Context) (string, error)
	PostCreateEvent(ctx context.Context, data domain.CreateData) (string, error)
	PostPatchEvent(ctx context.Context, id string, patch domain.Patch) error
}

// element pairs the serializable state with its transient handles.
type element struct {
	domain.ElementState
	mailbox *Mailbox
	mounted bool
}

// Runtime is the design element store and tree wiring engine.
type Runtime struct {
	mu sync.Mutex

	elements map[string]*element
	// order keeps first-insertion order so the reverse index is deterministic.
	order     []string
	root      *Mailbox
	acceptors []string

	// firstRenderDone gates live wiring; until the canvas has been populated,
	// parents may not have a mount point to receive children.
	firstRenderDone bool
	populated       bool
	children        map[string][]string
	waiting         map[string]struct{}

	bus      EventBus
	registry *registry.Registry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures the Runtime.
type Option func(*Runtime)

// WithBus attaches the event bus used by Run and by recorded mutations.
func WithBus(b EventBus) Option {
	return func(r *Runtime) {
		r.bus = b
	}
}

// WithRegistry sets the design element registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(r *Runtime) {
		r.registry = reg
	}
}

// WithHooks registers observability hooks.
// Hooks run while the runtime lock is held and must not call back into the Runtime.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runtime) {
		r.hooks = hooks
	}
}

// WithLogger configures a logger for the Runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// New creates an empty runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		elements: make(map[string]*element),
		root:     NewMailbox(),
		waiting:  make(map[string]struct{}),
		registry: registry.NewRegistry(),
		logger:   logging.NewNop(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ready is closed once the startup events have been applied.
func (r *Runtime) Ready() <-chan struct{} {
	return r.ready
}

// Registry returns the design element registry.
func (r *Runtime) Registry() *registry.Registry {
	return r.registry
}

// CanvasRoot returns the mailbox of the synthetic root element.
func (r *Runtime) CanvasRoot() *Mailbox {
	return r.root
}

// Run applies the startup events, signals readiness and then applies live
// events until ctx ends or the live feed is closed.
// Handler errors are logged; they never stop the loop.
func (r *Runtime) Run(ctx context.Context) error {
	if r.bus == nil {
		return ErrNoBus
	}

	select {
	case <-r.bus.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	startup := r.bus.Startup()
	for _, ev := range startup {
		if err := r.ApplyEvent(ctx, ev); err != nil {
			r.logger.Warn("Failed to apply startup event", "type", ev.Type, "id", ev.TargetID(), "err", err)
		}
	}
	r.markReady()
	r.logger.Info("Design runtime ready", "startup_events", len(startup), "elements", r.Len())

	events := r.bus.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := r.ApplyEvent(ctx, ev); err != nil {
				r.logger.Warn("Failed to apply live event", "type", ev.Type, "id", ev.TargetID(), "err", err)
			}
		}
	}
}

// MarkReady closes Ready without a bus. It is meant for runtimes populated by
// direct calls (tests, snapshot restores).
func (r *Runtime) MarkReady() {
	r.markReady()
}

func (r *Runtime) markReady() {
	r.readyOnce.Do(func() { close(r.ready) })
}

// ApplyEvent routes an event to its handler.
func (r *Runtime) ApplyEvent(ctx context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(ctx, ev)
}

func (r *Runtime) applyLocked(ctx context.Context, ev domain.Event) error {
	var err error
	switch ev.Type {
	case domain.EventCreate:
		if ev.Create == nil {
			return fmt.Errorf("CREATE event without payload")
		}
		err = r.handleCreate(ctx, *ev.Create)
	case domain.EventPatch:
		if ev.Patch == nil {
			return fmt.Errorf("PATCH event without payload")
		}
		err = r.handlePatch(ctx, ev.Patch.ID, ev.Patch.Slice)
	case domain.EventElementRendered:
		return r.acknowledgeLocked(ctx, ev.ID)
	default:
		// DELETE and UPDATE have no agreed semantics yet.
		r.logger.Warn("Unhandled type of event", "type", ev.Type, "id", ev.TargetID())
		if r.hooks.OnEventIgnored != nil {
			r.hooks.OnEventIgnored(ctx, ev)
		}
		return nil
	}

	if err != nil {
		return err
	}
	if r.hooks.OnEventApplied != nil {
		r.hooks.OnEventApplied(ctx, ev)
	}
	return nil
}
