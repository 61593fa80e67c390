package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskBucketRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := Load(testConfig{path: t.TempDir()})
	require.NoError(t, err)
	b := p.Bucket(Local)

	_, err = b.Get(ctx, "quickMessagesData")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, b.Set(ctx, "quickMessagesData", []byte(`{"version":3}`)))
	require.NoError(t, b.Set(ctx, "notes/with:odd chars", []byte(`[]`)))

	got, err := b.Get(ctx, "quickMessagesData")
	require.NoError(t, err)
	assert.Equal(t, `{"version":3}`, string(got))

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes/with:odd chars", "quickMessagesData"}, keys)

	require.NoError(t, b.Remove(ctx, "quickMessagesData"))
	require.NoError(t, b.Remove(ctx, "quickMessagesData"), "removing an absent key is not an error")
	_, err = b.Get(ctx, "quickMessagesData")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPartitionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	p, err := Load(testConfig{path: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, p.Bucket(Synced).Set(ctx, "settings", []byte(`{"theme":"dark"}`)))
	_, err = p.Bucket(Local).Get(ctx, "settings")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSyncedQuota(t *testing.T) {
	ctx := context.Background()
	p, err := Load(testConfig{
		path:   t.TempDir(),
		synced: SyncedOptions{QuotaBytes: 64, QuotaBytesPerItem: 40},
	})
	require.NoError(t, err)
	b := p.Bucket(Synced)

	err = b.Set(ctx, "big", []byte(strings.Repeat("x", 40)))
	assert.True(t, errors.Is(err, ErrQuotaExceeded), "per item limit")

	require.NoError(t, b.Set(ctx, "a", []byte(strings.Repeat("x", 30))))
	// replacing a key does not count its old value
	require.NoError(t, b.Set(ctx, "a", []byte(strings.Repeat("y", 30))))

	err = b.Set(ctx, "b", []byte(strings.Repeat("x", 35)))
	assert.True(t, errors.Is(err, ErrQuotaExceeded), "total limit")

	// the local partition is not limited
	require.NoError(t, p.Bucket(Local).Set(ctx, "big", []byte(strings.Repeat("x", 4096))))
}

func TestRedisBucket(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := newRedisBucketWithClient(client, "quickmsg:")
	defer b.Close()

	_, err := b.Get(ctx, "settings")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, b.Set(ctx, "settings", []byte(`{"theme":"light"}`)))
	require.NoError(t, b.Set(ctx, "quickMessagesData", []byte(`{"version":3}`)))

	raw, err := mr.Get("quickmsg:settings")
	require.NoError(t, err)
	assert.Equal(t, `{"theme":"light"}`, raw)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"quickMessagesData", "settings"}, keys)

	require.NoError(t, b.Remove(ctx, "settings"))
	_, err = b.Get(ctx, "settings")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisBucketErrors(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	b := newRedisBucketWithClient(client, "quickmsg:")

	mock.ExpectGet("quickmsg:settings").RedisNil()
	mock.ExpectGet("quickmsg:notesData").SetErr(errors.New("LOADING"))
	mock.ExpectDel("quickmsg:notesData").SetVal(1)

	_, err := b.Get(ctx, "settings")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = b.Get(ctx, "notesData")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "LOADING")

	require.NoError(t, b.Remove(ctx, "notesData"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadWithRedisSyncedPartition(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	p, err := Load(testConfig{
		path:   t.TempDir(),
		synced: SyncedOptions{RedisAddr: mr.Addr(), Prefix: "qm:"},
	})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, SetJSON(ctx, p.Bucket(Synced), "settings", map[string]string{"theme": "dark"}))
	assert.True(t, mr.Exists("qm:settings"))

	var got map[string]string
	found, err := GetJSON(ctx, p.Bucket(Synced), "settings", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", got["theme"])
}
