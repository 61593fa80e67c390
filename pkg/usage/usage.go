// Package usage counts how often each message template is used.
package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/metrics"
	"tableflip.dev/quickmsg/pkg/store"
)

// StorageKey lives in the local partition.
const StorageKey = "usageStats"

// Stat is the usage of one message.
type Stat struct {
	MessageID string    `json:"messageId"`
	Count     int       `json:"count"`
	LastUsed  time.Time `json:"lastUsed"`
}

type entry struct {
	Count    int       `json:"count"`
	LastUsed time.Time `json:"lastUsed"`
}

type Tracker struct {
	bucket store.Bucket
	log    *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewTracker(bucket store.Bucket, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{bucket: bucket, log: log, now: time.Now}
}

func (t *Tracker) load(ctx context.Context) (map[string]entry, error) {
	stats := make(map[string]entry)
	if _, err := store.GetJSON(ctx, t.bucket, StorageKey, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (t *Tracker) write(ctx context.Context, stats map[string]entry) error {
	if err := store.SetJSON(ctx, t.bucket, StorageKey, stats); err != nil {
		return err
	}
	metrics.DocumentWrites.WithLabelValues(StorageKey).Inc()
	return nil
}

// Record counts one use of messageID.
func (t *Tracker) Record(ctx context.Context, messageID string) (Stat, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats, err := t.load(ctx)
	if err != nil {
		return Stat{}, err
	}
	e := stats[messageID]
	e.Count++
	e.LastUsed = t.now()
	stats[messageID] = e
	if err := t.write(ctx, stats); err != nil {
		return Stat{}, err
	}
	return Stat{MessageID: messageID, Count: e.Count, LastUsed: e.LastUsed}, nil
}

// Top returns the n most used messages. n <= 0 returns all of them.
func (t *Tracker) Top(ctx context.Context, n int) ([]Stat, error) {
	t.mu.Lock()
	stats, err := t.load(ctx)
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]Stat, 0, len(stats))
	for id, e := range stats {
		out = append(out, Stat{MessageID: id, Count: e.Count, LastUsed: e.LastUsed})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if !out[i].LastUsed.Equal(out[j].LastUsed) {
			return out[i].LastUsed.After(out[j].LastUsed)
		}
		return out[i].MessageID < out[j].MessageID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Forget drops the counters of a removed message.
func (t *Tracker) Forget(ctx context.Context, messageID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats, err := t.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := stats[messageID]; !ok {
		return nil
	}
	delete(stats, messageID)
	return t.write(ctx, stats)
}

// Reset clears every counter.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bucket.Remove(ctx, StorageKey)
}
