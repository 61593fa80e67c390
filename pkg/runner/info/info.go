// Package info reports where quickmsg keeps its data.
package info

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/config"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/store"
)

type Info struct {
	App    *app.App
	Output printers.Output
}

// Summary is the JSON form of the report.
type Summary struct {
	ConfigPathEnv     string              `json:"configPathEnv,omitempty"`
	Path              string              `json:"path"`
	DocumentPartition store.Partition     `json:"documentPartition"`
	SyncedBackend     string              `json:"syncedBackend"`
	SchedulerMode     string              `json:"schedulerMode"`
	SchedulerAddr     string              `json:"schedulerAddr,omitempty"`
	Keys              map[string][]string `json:"keys"`
	PendingAlarms     int                 `json:"pendingAlarms"`
}

func (n *Info) Do(ctx context.Context) error {
	cfg := n.App.Config
	sum := Summary{
		ConfigPathEnv:     os.Getenv("QUICKMSG_CONFIG_PATH"),
		Path:              cfg.BasePath(),
		DocumentPartition: cfg.DocumentPartition,
		SyncedBackend:     backend(cfg.SyncedOptions()),
		SchedulerMode:     cfg.Scheduler.Mode,
		Keys:              map[string][]string{},
	}
	if cfg.Scheduler.Mode != config.SchedulerEmbedded {
		sum.SchedulerAddr = cfg.Scheduler.Addr
	}
	for _, part := range []store.Partition{store.Synced, store.Local} {
		keys, err := n.App.Persistence.Bucket(part).Keys(ctx)
		if err != nil {
			return fmt.Errorf("list %s keys: %w", part, err)
		}
		sum.Keys[string(part)] = keys
	}
	alarms, err := n.App.Scheduler.Alarms(ctx)
	if err != nil {
		return err
	}
	sum.PendingAlarms = len(alarms)

	return n.Output.Emit(sum, func(pp *printers.PrettyPrint) {
		pp.Title("quickmsg")
		tbl := uitable.New()
		tbl.Separator = "  "
		if sum.ConfigPathEnv != "" {
			tbl.AddRow("QUICKMSG_CONFIG_PATH", sum.ConfigPathEnv)
		} else {
			tbl.AddRow("QUICKMSG_CONFIG_PATH", color.New(color.Faint).Sprint("not set"))
		}
		tbl.AddRow("path", sum.Path)
		tbl.AddRow("documents", string(sum.DocumentPartition))
		tbl.AddRow("synced backend", sum.SyncedBackend)
		tbl.AddRow("scheduler", sum.SchedulerMode+" "+sum.SchedulerAddr)
		tbl.AddRow("pending alarms", fmt.Sprint(sum.PendingAlarms))
		for _, part := range []string{string(store.Synced), string(store.Local)} {
			if len(sum.Keys[part]) == 0 {
				tbl.AddRow(part, color.New(color.Faint).Sprint("empty"))
			}
			for i, k := range sum.Keys[part] {
				label := ""
				if i == 0 {
					label = part
				}
				tbl.AddRow(label, k)
			}
		}
		_, _ = fmt.Fprintln(pp.Out, tbl)
		pp.NewLine()
	})
}

func backend(o store.SyncedOptions) string {
	switch {
	case o.PostgresDSN != "":
		return "postgres"
	case o.RedisAddr != "":
		return "redis " + o.RedisAddr
	}
	return "disk"
}
