package canopy

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/bus"
	"github.com/aretw0/canopy/pkg/design"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

// Editor is the high-level entry point of the library. It owns an event bus
// attached to a backend log and the design runtime materializing it.
type Editor struct {
	runtime  *design.Runtime
	bus      *bus.Bus
	registry *registry.Registry

	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	catalogPath string
	idBatch     int

	cancel context.CancelFunc
	done   chan error
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithRegistry injects a design element registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Editor) {
		e.registry = reg
	}
}

// WithCatalog loads the registry from a YAML or JSON catalog file.
func WithCatalog(path string) Option {
	return func(e *Editor) {
		e.catalogPath = path
	}
}

// WithIDBatch sets how many element IDs are fetched from the ID source at a time.
func WithIDBatch(n int) Option {
	return func(e *Editor) {
		e.idBatch = n
	}
}

// Open connects to the backend log and starts materializing it.
// The returned editor is live; use Wait to block until the startup events are applied.
func Open(ctx context.Context, log ports.EventLog, ids ports.IDSource, opts ...Option) (*Editor, error) {
	if log == nil || ids == nil {
		return nil, errors.New("event log and id source are required")
	}

	e := &Editor{idBatch: bus.DefaultIDBatch}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	if e.catalogPath != "" {
		reg, err := registry.LoadCatalog(e.catalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		e.registry = reg
	}
	if e.registry == nil {
		e.registry = registry.Builtin()
	}

	e.bus = bus.New(log, ids,
		bus.WithLogger(e.logger),
		bus.WithIDBatch(e.idBatch),
	)
	e.runtime = design.New(
		design.WithBus(e.bus),
		design.WithRegistry(e.registry),
		design.WithHooks(e.hooks),
		design.WithLogger(e.logger),
	)

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan error, 1)
	go func() { e.done <- e.runtime.Run(runCtx) }()

	if err := e.bus.Start(runCtx); err != nil {
		cancel()
		<-e.done
		return nil, err
	}
	return e, nil
}

// Wait blocks until the startup events have been applied.
func (e *Editor) Wait(ctx context.Context) error {
	select {
	case <-e.runtime.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runtime returns the design runtime.
func (e *Editor) Runtime() *design.Runtime {
	return e.runtime
}

// Bus returns the event bus.
func (e *Editor) Bus() *bus.Bus {
	return e.bus
}

// Registry returns the design element registry.
func (e *Editor) Registry() *registry.Registry {
	return e.registry
}

// Close stops the live feed and waits for the runtime loop to exit.
func (e *Editor) Close() error {
	e.cancel()
	err := <-e.done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
