package serve

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/config"
	"tableflip.dev/quickmsg/pkg/reminder"
	"tableflip.dev/quickmsg/pkg/store"
)

func testConfig(mode, addr string) *config.Config {
	return &config.Config{
		DocumentPartition: store.Local,
		Scheduler: config.SchedulerConfig{
			Mode:           mode,
			Addr:           addr,
			SweepInterval:  time.Minute,
			RequestTimeout: 2 * time.Second,
		},
		Notify: config.NotifyConfig{Kind: config.NotifyLog},
	}
}

func TestDaemonAcceptsRemoteScheduling(t *testing.T) {
	p := store.NewMemory(store.SyncedOptions{})
	daemonApp, err := app.New(context.Background(), testConfig(config.SchedulerEmbedded, ""), p, nil, app.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	bound := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- Daemon{
			App:         daemonApp,
			Addr:        "127.0.0.1:0",
			OnListening: func(a net.Addr) { bound <- a },
		}.Do(ctx)
	}()
	addr := <-bound

	cli, err := app.New(context.Background(), testConfig(config.SchedulerRemote, addr.String()), p, nil, app.Options{})
	require.NoError(t, err)

	id, err := cli.Reminders.Save(ctx, reminder.Reminder{
		Title:    "Renew passport",
		DateTime: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		alarms, err := daemonApp.Scheduler.Alarms(context.Background())
		return err == nil && len(alarms) == 1 && alarms[0].ReminderID == id
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, cli.Reminders.Delete(ctx, id))
	alarms, err := daemonApp.Scheduler.Alarms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alarms)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
