package serve

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/metrics"
	"tableflip.dev/quickmsg/pkg/scheduler"
)

// DefaultCleanupInterval is how often the daemon drops expired reminders.
const DefaultCleanupInterval = time.Hour

// Daemon runs the scheduler in-process and exposes its HTTP bridge, the
// notification websocket and, optionally, metrics.
type Daemon struct {
	App *app.App
	// Addr serves the scheduler bridge.
	Addr string
	// MetricsAddr serves /metrics. Empty disables it; equal to Addr mounts it
	// on the bridge.
	MetricsAddr     string
	CleanupInterval time.Duration
	OnListening     func(net.Addr)
}

func (d Daemon) Do(ctx context.Context) error {
	a := d.App
	log := a.Log.Named("daemon")

	hub := scheduler.NewHub(a.Relay, a.Log.Named("hub"))
	a.AddNotifier(hub)

	opts := scheduler.ServerOptions{
		Relay:  a.Relay,
		Hub:    hub,
		Secret: []byte(a.Config.Scheduler.Secret),
		Log:    a.Log.Named("http"),
	}
	separateMetrics := d.MetricsAddr != "" && d.MetricsAddr != d.Addr
	if d.MetricsAddr != "" && !separateMetrics {
		opts.Metrics = metrics.Handler()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.ServeScheduler(ctx)
	})
	g.Go(func() error {
		return HTTP{
			Addr:        d.Addr,
			Handler:     scheduler.NewHandler(a.Scheduler, opts),
			OnListening: d.OnListening,
		}.Do(ctx)
	})
	if separateMetrics {
		g.Go(func() error {
			mux := http.NewServeMux()
			mux.Handle("GET /metrics", metrics.Handler())
			log.Info("metrics listening", zap.String("addr", d.MetricsAddr))
			return HTTP{Addr: d.MetricsAddr, Handler: mux}.Do(ctx)
		})
	}
	g.Go(func() error {
		d.cleanup(ctx, log)
		return nil
	})
	return g.Wait()
}

func (d Daemon) cleanup(ctx context.Context, log *zap.Logger) {
	every := d.CleanupInterval
	if every <= 0 {
		every = DefaultCleanupInterval
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		removed, err := d.App.Reminders.CleanupExpired(ctx)
		if err != nil {
			log.Warn("reminder cleanup failed", zap.Error(err))
		} else if len(removed) > 0 {
			log.Info("removed expired reminders", zap.Int("count", len(removed)))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
