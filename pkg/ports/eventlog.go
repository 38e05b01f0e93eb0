package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// EventLog is the backend log every design mutation is recorded in.
type EventLog interface {
	// Fetch returns every event recorded so far, in log order.
	// It is the finite startup snapshot consumed once before the live feed.
	Fetch(ctx context.Context) ([]domain.Record, error)

	// Subscribe streams events recorded strictly after the cursor.
	// An empty cursor means "from the beginning". The channel is closed when ctx ends.
	Subscribe(ctx context.Context, after string) (<-chan domain.Record, error)

	// Append records events in order and returns them with their assigned positions.
	Append(ctx context.Context, events ...domain.Event) ([]domain.Record, error)
}

// IDSource hands out fresh, globally unique element identifiers.
type IDSource interface {
	NextIDs(ctx context.Context, n int) ([]string, error)
}
