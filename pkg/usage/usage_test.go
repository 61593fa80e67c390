package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/store"
)

func TestRecordTopForget(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(store.NewMemory(store.SyncedOptions{}).Bucket(store.Local), nil)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	tr.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, id := range []string{"a", "b", "b", "c", "a", "b"} {
		_, err := tr.Record(ctx, id)
		require.NoError(t, err)
	}

	top, err := tr.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].MessageID)
	assert.Equal(t, 3, top[0].Count)
	assert.Equal(t, "a", top[1].MessageID)

	require.NoError(t, tr.Forget(ctx, "b"))
	require.NoError(t, tr.Forget(ctx, "never-used"))

	all, err := tr.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].MessageID)
	assert.Equal(t, "c", all[1].MessageID)
}
