package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisEventLog_Contract(t *testing.T) {
	tests.EventLogContractTest(t, func(t *testing.T) ports.EventLog {
		_, client := newClient(t)
		return redis.NewEventLog(client, redis.WithBlock(50*time.Millisecond))
	})
}

func TestRedisEventLog_StreamLayout(t *testing.T) {
	mr, client := newClient(t)
	log := redis.NewEventLog(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	recs, err := log.Append(ctx, domain.NewPatchEvent("a", domain.StylePatch(map[string]any{"top": "1px"})))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	entries, err := mr.Stream("test:events")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, recs[0].Seq, entries[0].ID)

	fields := make(map[string]string)
	for i := 0; i+1 < len(entries[0].Values); i += 2 {
		fields[entries[0].Values[i]] = entries[0].Values[i+1]
	}
	assert.Equal(t, "PATCH", fields["type"])
	assert.JSONEq(t, `{"type":"PATCH","payload":{"ID":"a","slice":{"style":{"top":"1px"}}}}`, fields["event"])
}

func TestRedisEventLog_SkipsForeignEntries(t *testing.T) {
	_, client := newClient(t)
	log := redis.NewEventLog(client)
	ctx := context.Background()

	require.NoError(t, client.XAdd(ctx, &backend.XAddArgs{
		Stream: redis.DefaultPrefix + "events",
		Values: map[string]any{"type": "CREATE", "event": "not json"},
	}).Err())
	_, err := log.Append(ctx, domain.NewRenderedEvent("x"))
	require.NoError(t, err)

	records, err := log.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.EventElementRendered, records[0].Event.Type)
}
