package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	path   string
	synced SyncedOptions
}

func (t testConfig) BasePath() string {
	return t.path
}

func (t testConfig) SyncedOptions() SyncedOptions {
	return t.synced
}

func TestPersistenceWatchEmitsKeyChanges(t *testing.T) {
	p, err := Load(testConfig{path: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Watch(ctx)
	require.NoError(t, err)

	// Allow watcher goroutine to subscribe to directories before storing.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, p.Bucket(Local).Set(ctx, "remindersData", []byte(`{}`)))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Key == "" {
				continue
			}
			require.Equal(t, Local, evt.Partition)
			require.Equal(t, "remindersData", evt.Key)
			return
		case <-deadline:
			t.Fatal("timed out waiting for key change event")
		}
	}
}
