package redis

import (
	"context"
	"fmt"
	"strconv"

	backend "github.com/redis/go-redis/v9"
)

// IDSource hands out element identifiers from a shared Redis counter, so every
// editor connected to the same instance draws from one sequence.
type IDSource struct {
	client *backend.Client
	key    string
}

// NewIDSource creates a counter-backed ID source.
func NewIDSource(client *backend.Client, opts ...Option) *IDSource {
	c := newConfig(opts)
	return &IDSource{client: client, key: c.prefix + "ids"}
}

// NextIDs reserves n consecutive identifiers with a single INCRBY.
func (s *IDSource) NextIDs(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid id count %d", n)
	}
	last, err := s.client.IncrBy(ctx, s.key, int64(n)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve ids: %w", err)
	}

	out := make([]string, n)
	first := last - int64(n) + 1
	for i := range out {
		out[i] = "el-" + strconv.FormatInt(first+int64(i), 10)
	}
	return out, nil
}
