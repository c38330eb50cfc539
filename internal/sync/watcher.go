// Package sync funnels cross-session change signals, the fallback poll
// ticker, and explicit refresh requests into a single subscription point so
// views keep one recompute path.
package sync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/internal/store"
)

// Trigger names the source of a change notification.
type Trigger string

const (
	TriggerSignal  Trigger = "signal"
	TriggerPoll    Trigger = "poll"
	TriggerRefresh Trigger = "refresh"
)

// Change describes one notification delivered to subscribers. Key is empty
// for poll and refresh triggers, which mean "re-read everything".
type Change struct {
	Key     string
	Trigger Trigger
	At      time.Time
}

// Callback receives change notifications. Callbacks must be idempotent:
// re-running a recompute on unchanged data must not mutate any state.
type Callback func(Change)

type metricsSink interface {
	ObserveSyncTrigger(source string)
}

// Watcher is the single consumer fed by all trigger producers.
type Watcher struct {
	signals      store.Signaler
	pollInterval time.Duration
	metrics      metricsSink
	logger       *zap.Logger

	mu      sync.Mutex
	subs    map[int]*subscription
	nextID  int
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

type subscription struct {
	keys map[string]struct{}
	fn   Callback
}

// NewWatcher constructs a watcher over the given signal source.
func NewWatcher(signals store.Signaler, pollInterval time.Duration, metrics metricsSink, logger *zap.Logger) *Watcher {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		signals:      signals,
		pollInterval: pollInterval,
		metrics:      metrics,
		logger:       logger,
		subs:         make(map[int]*subscription),
	}
}

// Subscribe registers a callback for the given keys; nil or empty keys means
// every key. The returned function tears the subscription down and must be
// called when the owning view goes away.
func (w *Watcher) Subscribe(keys []string, fn Callback) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	sub := &subscription{fn: fn}
	if len(keys) > 0 {
		sub.keys = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			sub.keys[k] = struct{}{}
		}
	}
	w.subs[id] = sub
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// Start launches the signal listener and the poll ticker. Safe to call once.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.started = true
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop tears down the producers and waits for the run loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
}

// Refresh delivers an explicit refresh trigger, the focus-event analog.
func (w *Watcher) Refresh() {
	w.dispatch(Change{Trigger: TriggerRefresh, At: time.Now()})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	var signals <-chan string
	var cancelSignals func()
	if w.signals != nil {
		ch, cancel, err := w.signals.Changes(ctx)
		if err != nil {
			w.logger.Warn("change signal subscription failed, polling only", zap.Error(err))
		} else {
			signals = ch
			cancelSignals = cancel
		}
	}
	if cancelSignals != nil {
		defer cancelSignals()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			w.dispatch(Change{Key: key, Trigger: TriggerSignal, At: time.Now()})
		case <-ticker.C:
			w.dispatch(Change{Trigger: TriggerPoll, At: time.Now()})
		}
	}
}

func (w *Watcher) dispatch(change Change) {
	if w.metrics != nil {
		w.metrics.ObserveSyncTrigger(string(change.Trigger))
	}

	w.mu.Lock()
	callbacks := make([]Callback, 0, len(w.subs))
	for _, sub := range w.subs {
		if change.Key != "" && sub.keys != nil {
			if _, ok := sub.keys[change.Key]; !ok {
				continue
			}
		}
		callbacks = append(callbacks, sub.fn)
	}
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(change)
	}
}
