package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
	"golang.org/x/term"
)

// startupTimeout bounds how long commands wait for the log replay.
const startupTimeout = 30 * time.Second

// openEditor connects to the configured backend and replays its log.
// The caller must close both return values.
func openEditor(ctx context.Context, hooks domain.LifecycleHooks) (*canopy.Editor, *cli.Backend, error) {
	backend, err := cli.BuildBackend(ctx, settings, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []canopy.Option{
		canopy.WithLogger(logger),
		canopy.WithLifecycleHooks(hooks),
	}
	if settings.Catalog != "" {
		opts = append(opts, canopy.WithCatalog(settings.Catalog))
	}

	editor, err := canopy.Open(ctx, backend.Log, backend.IDs, opts...)
	if err != nil {
		_ = backend.Close()
		return nil, nil, fmt.Errorf("failed to open editor: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if err := editor.Wait(waitCtx); err != nil {
		_ = editor.Close()
		_ = backend.Close()
		return nil, nil, fmt.Errorf("log replay did not finish: %w", err)
	}
	return editor, backend, nil
}

// loadRegistry resolves the catalog named in the settings, or the builtin one.
func loadRegistry() (*registry.Registry, error) {
	if settings.Catalog == "" {
		return registry.Builtin(), nil
	}
	return registry.LoadCatalog(settings.Catalog)
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
