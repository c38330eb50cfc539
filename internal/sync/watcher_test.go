package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/internal/store"
)

func TestWatcherRefreshReachesAllSubscribers(t *testing.T) {
	w := NewWatcher(nil, time.Hour, nil, zap.NewNop())

	var first, second []Change
	w.Subscribe(nil, func(c Change) { first = append(first, c) })
	w.Subscribe([]string{"queries"}, func(c Change) { second = append(second, c) })

	w.Refresh()

	require.Len(t, first, 1)
	assert.Equal(t, TriggerRefresh, first[0].Trigger)
	assert.Empty(t, first[0].Key)
	// Key-scoped subscribers still see keyless triggers.
	require.Len(t, second, 1)
}

func TestWatcherUnsubscribeStopsDelivery(t *testing.T) {
	w := NewWatcher(nil, time.Hour, nil, zap.NewNop())

	var got []Change
	unsubscribe := w.Subscribe(nil, func(c Change) { got = append(got, c) })

	w.Refresh()
	unsubscribe()
	w.Refresh()

	assert.Len(t, got, 1)
}

func TestWatcherSignalDeliveryFiltersByKey(t *testing.T) {
	kv := store.NewMemoryKV()
	w := NewWatcher(kv, time.Hour, nil, zap.NewNop())

	queriesChanges := make(chan Change, 8)
	usersChanges := make(chan Change, 8)
	w.Subscribe([]string{store.KeyQueries}, func(c Change) { queriesChanges <- c })
	w.Subscribe([]string{store.KeyUsers}, func(c Change) { usersChanges <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	// The run loop subscribes asynchronously; give it a beat.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, kv.Write(context.Background(), store.KeyQueries, []string{}))

	select {
	case change := <-queriesChanges:
		assert.Equal(t, TriggerSignal, change.Trigger)
		assert.Equal(t, store.KeyQueries, change.Key)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change signal for the queries key")
	}

	select {
	case change := <-usersChanges:
		t.Fatalf("unexpected delivery to users subscriber: %+v", change)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcherPollTickerFires(t *testing.T) {
	w := NewWatcher(nil, 20*time.Millisecond, nil, zap.NewNop())

	polls := make(chan Change, 8)
	w.Subscribe(nil, func(c Change) { polls <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	select {
	case change := <-polls:
		assert.Equal(t, TriggerPoll, change.Trigger)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a poll trigger")
	}
}

func TestWatcherStopWaitsForRunLoop(t *testing.T) {
	kv := store.NewMemoryKV()
	w := NewWatcher(kv, 10*time.Millisecond, nil, zap.NewNop())

	w.Start(context.Background())
	w.Stop()

	// Stop is idempotent against a second call on a stopped watcher.
	w.Stop()
}
