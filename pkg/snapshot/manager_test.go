package snapshot_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree() domain.Snapshot {
	el := func(id, compKey, parent string) domain.ElementState {
		return domain.ElementState{ID: id, CompKey: compKey, Pkg: domain.DefaultPkg, State: domain.NewState(parent)}
	}
	return domain.Snapshot{
		"b":  el("b", "Container", domain.RootID),
		"a1": el("a1", "Text", "a"),
		"a":  el("a", "Container", domain.RootID),
		"x":  el("x", "Button", "a1"),
	}
}

type source domain.Snapshot

func (s source) State() domain.Snapshot { return domain.Snapshot(s) }

func TestEvents_ParentBeforeChild(t *testing.T) {
	events, err := snapshot.Events(tree())
	require.NoError(t, err)

	var ids []string
	for _, ev := range events {
		require.Equal(t, domain.EventCreate, ev.Type)
		ids = append(ids, ev.TargetID())
	}
	assert.Equal(t, []string{"a", "b", "a1", "x"}, ids)
}

func TestEvents_RejectsBrokenTrees(t *testing.T) {
	orphan := tree()
	orphan["o"] = domain.ElementState{ID: "o", State: domain.NewState("missing")}
	_, err := snapshot.Events(orphan)
	assert.ErrorIs(t, err, domain.ErrParentNotFound)

	cyclic := tree()
	cyclic["p"] = domain.ElementState{ID: "p", State: domain.NewState("q")}
	cyclic["q"] = domain.ElementState{ID: "q", State: domain.NewState("p")}
	_, err = snapshot.Events(cyclic)
	assert.ErrorIs(t, err, domain.ErrCycle)
}

func TestManager_CaptureAndLoad(t *testing.T) {
	mgr := snapshot.NewManager(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, mgr.Capture(ctx, "demo", source(tree())))

	snap, err := mgr.Load(ctx, "demo")
	require.NoError(t, err)
	assert.Len(t, snap, 4)

	projects, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, projects)

	require.NoError(t, mgr.Delete(ctx, "demo"))
	_, err = mgr.Load(ctx, "demo")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestManager_Restore(t *testing.T) {
	mgr := snapshot.NewManager(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, mgr.Save(ctx, "demo", tree()))

	log := memory.NewEventLog()
	records, err := mgr.Restore(ctx, "demo", log)
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, 4, log.Len())

	_, err = mgr.Restore(ctx, "demo", log)
	assert.ErrorIs(t, err, snapshot.ErrLogNotEmpty)

	_, err = mgr.Restore(ctx, "missing", memory.NewEventLog())
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := snapshot.NewManager(memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	inside := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mgr.WithLock(ctx, "shared", func(ctx context.Context) error {
				mu.Lock()
				inside++
				n := inside
				mu.Unlock()
				assert.Equal(t, 1, n, "critical section entered concurrently")
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
}

type recordingLocker struct {
	mu    sync.Mutex
	keys  []string
	ttls  []time.Duration
	fail  bool
	freed int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return nil, errors.New("locker down")
	}
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.freed++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	mgr := snapshot.NewManager(memory.NewStore(), snapshot.WithLocker(locker), snapshot.WithLockTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, mgr.Save(ctx, "p", tree()))
	assert.Equal(t, []string{"p"}, locker.keys)
	assert.Equal(t, []time.Duration{time.Minute}, locker.ttls)
	assert.Equal(t, 1, locker.freed)

	locker.fail = true
	err := mgr.Save(ctx, "p", tree())
	assert.ErrorContains(t, err, "distributed lock")
}
