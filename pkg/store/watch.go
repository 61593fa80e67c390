package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is emitted by Persistence.Watch when a stored document changes. An
// empty Key means the whole partition should be considered stale.
type Event struct {
	Partition Partition
	Key       string
}

// Watch streams change events for disk-backed partitions until ctx is
// cancelled. Callers should drain the returned channel; events are dropped
// rather than blocking the watcher. The channel is closed once ctx is done or
// the watcher fails.
func (p *persistence) Watch(ctx context.Context) (<-chan Event, error) {
	if len(p.disks) == 0 {
		return nil, errors.New("store: no disk partitions to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			_ = watcher.Close()
		})
	}

	dirs := make(map[string]Partition, len(p.disks))
	for part, dir := range p.disks {
		dir = filepath.Clean(dir)
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("store: watch %s: %w", dir, err)
		}
		dirs[dir] = part
	}

	events := make(chan Event, 64)

	go func() {
		defer close(events)
		defer closeWatcher()

		send := func(ev Event) {
			select {
			case events <- ev:
			default:
			}
		}

		throttle := newEventThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Unclassified failures invalidate everything we watch.
				for _, part := range dirs {
					throttle.Enqueue(Event{Partition: part}, send)
				}
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				part, found := dirs[filepath.Clean(filepath.Dir(evt.Name))]
				if !found {
					continue
				}
				key := fileNameToKey(filepath.Base(evt.Name))
				if key == "" {
					continue
				}
				throttle.Enqueue(Event{Partition: part, Key: key}, send)
			}
		}
	}()

	return events, nil
}

// eventThrottle coalesces rapid change notifications so a single document
// rewrite produces one event instead of one per filesystem operation.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[Event]struct{}
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[Event]struct{}),
	}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	t.pending[ev] = struct{}{}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[Event]struct{})
	t.timer = nil
	t.mu.Unlock()

	for ev := range pending {
		send(ev)
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
