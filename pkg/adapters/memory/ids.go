package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// IDSource implements ports.IDSource with random UUIDs.
type IDSource struct{}

// NewIDSource creates a UUID backed ID source.
func NewIDSource() *IDSource {
	return &IDSource{}
}

// NextIDs returns n fresh identifiers.
func (IDSource) NextIDs(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid id count: %d", n)
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	return ids, nil
}
