package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// GetJSON reads key and decodes it into v. It reports false, with no error,
// when the key is absent.
func GetJSON(ctx context.Context, b Bucket, key string, v any) (bool, error) {
	data, err := b.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and writes it as the whole value of key.
func SetJSON(ctx context.Context, b Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return b.Set(ctx, key, data)
}
