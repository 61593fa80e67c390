package store

import (
	"context"
	"errors"
	"fmt"
)

// Defaults mirror the limits of a browser-style synced storage area.
const (
	DefaultQuotaBytes        = 102400
	DefaultQuotaBytesPerItem = 8192
)

type quotaBucket struct {
	Bucket
	total   int
	perItem int
}

// withQuota enforces per-item and total size limits on writes. A limit of
// zero or less disables that check.
func withQuota(b Bucket, total, perItem int) Bucket {
	if total <= 0 && perItem <= 0 {
		return b
	}
	return &quotaBucket{Bucket: b, total: total, perItem: perItem}
}

func (q *quotaBucket) Set(ctx context.Context, key string, value []byte) error {
	size := len(key) + len(value)
	if q.perItem > 0 && size > q.perItem {
		return fmt.Errorf("%w: %s is %d bytes, limit per item is %d", ErrQuotaExceeded, key, size, q.perItem)
	}
	if q.total > 0 {
		used, err := q.usage(ctx, key)
		if err != nil {
			return err
		}
		if used+size > q.total {
			return fmt.Errorf("%w: %d of %d bytes used, %s needs %d", ErrQuotaExceeded, used, q.total, key, size)
		}
	}
	return q.Bucket.Set(ctx, key, value)
}

// usage sums the size of every stored item except skip, which is about to be
// replaced.
func (q *quotaBucket) usage(ctx context.Context, skip string) (int, error) {
	keys, err := q.Bucket.Keys(ctx)
	if err != nil {
		return 0, err
	}
	used := 0
	for _, key := range keys {
		if key == skip {
			continue
		}
		val, err := q.Bucket.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		used += len(key) + len(val)
	}
	return used, nil
}
