// Package config loads quickmsg configuration from .quickmsg.yaml files and
// QUICKMSG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/quickmsg/pkg/store"
)

const (
	SchedulerEmbedded = "embedded"
	SchedulerRemote   = "remote"

	NotifyLog = "log"
	NotifySNS = "sns"
)

// Config is the resolved runtime configuration.
type Config struct {
	Path              string
	DocumentPartition store.Partition
	Synced            store.SyncedOptions

	Scheduler SchedulerConfig
	Notify    NotifyConfig
	Log       LogConfig
	Metrics   MetricsConfig
}

type SchedulerConfig struct {
	Mode           string
	Addr           string
	SweepInterval  time.Duration
	RequestTimeout time.Duration
	// Secret signs bearer tokens on the scheduler's HTTP surface. Empty
	// disables authentication.
	Secret string
}

type NotifyConfig struct {
	Kind        string
	SNSTopicARN string
	AWSRegion   string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Addr string
}

// BasePath implements store.Config.
func (c *Config) BasePath() string {
	return c.Path
}

// SyncedOptions implements store.Config.
func (c *Config) SyncedOptions() store.SyncedOptions {
	return c.Synced
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("path", "~/.quickmsg")
	v.SetDefault("storage.document_partition", string(store.Local))
	v.SetDefault("storage.synced.postgres_dsn", "")
	v.SetDefault("storage.synced.redis_addr", "")
	v.SetDefault("storage.synced.redis_password", "")
	v.SetDefault("storage.synced.redis_db", 0)
	v.SetDefault("storage.synced.prefix", "quickmsg:")
	v.SetDefault("storage.synced.quota_bytes", store.DefaultQuotaBytes)
	v.SetDefault("storage.synced.quota_bytes_per_item", store.DefaultQuotaBytesPerItem)
	v.SetDefault("scheduler.mode", SchedulerEmbedded)
	v.SetDefault("scheduler.addr", "127.0.0.1:7465")
	v.SetDefault("scheduler.sweep_interval", "30s")
	v.SetDefault("scheduler.request_timeout", "5s")
	v.SetDefault("scheduler.secret", "")
	v.SetDefault("notify.kind", NotifyLog)
	v.SetDefault("notify.sns_topic_arn", "")
	v.SetDefault("notify.aws_region", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("metrics.addr", "")
}

// Load walks the usual places for a .quickmsg config file and layers the
// environment on top.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName(".quickmsg") // .yaml is implicit
	v.SetEnvPrefix("QUICKMSG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("QUICKMSG_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("config: expand path: %w", err)
	}

	cfg := &Config{
		Path:              path,
		DocumentPartition: store.Partition(strings.ToLower(v.GetString("storage.document_partition"))),
		Synced: store.SyncedOptions{
			PostgresDSN:       v.GetString("storage.synced.postgres_dsn"),
			RedisAddr:         v.GetString("storage.synced.redis_addr"),
			RedisPassword:     v.GetString("storage.synced.redis_password"),
			RedisDB:           v.GetInt("storage.synced.redis_db"),
			Prefix:            v.GetString("storage.synced.prefix"),
			QuotaBytes:        v.GetInt("storage.synced.quota_bytes"),
			QuotaBytesPerItem: v.GetInt("storage.synced.quota_bytes_per_item"),
		},
		Scheduler: SchedulerConfig{
			Mode:           strings.ToLower(v.GetString("scheduler.mode")),
			Addr:           v.GetString("scheduler.addr"),
			SweepInterval:  v.GetDuration("scheduler.sweep_interval"),
			RequestTimeout: v.GetDuration("scheduler.request_timeout"),
			Secret:         v.GetString("scheduler.secret"),
		},
		Notify: NotifyConfig{
			Kind:        strings.ToLower(v.GetString("notify.kind")),
			SNSTopicARN: v.GetString("notify.sns_topic_arn"),
			AWSRegion:   v.GetString("notify.aws_region"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.DocumentPartition {
	case store.Local, store.Synced:
	default:
		return fmt.Errorf("config: unknown document partition %q (expected local or synced)", c.DocumentPartition)
	}
	switch c.Scheduler.Mode {
	case SchedulerEmbedded, SchedulerRemote:
	default:
		return fmt.Errorf("config: unknown scheduler mode %q (expected embedded or remote)", c.Scheduler.Mode)
	}
	switch c.Notify.Kind {
	case NotifyLog:
	case NotifySNS:
		if c.Notify.SNSTopicARN == "" {
			return errors.New("config: notify.sns_topic_arn is required for sns notifications")
		}
	default:
		return fmt.Errorf("config: unknown notify kind %q (expected log or sns)", c.Notify.Kind)
	}
	if c.Scheduler.SweepInterval <= 0 {
		return errors.New("config: scheduler.sweep_interval must be positive")
	}
	if c.Scheduler.RequestTimeout <= 0 {
		return errors.New("config: scheduler.request_timeout must be positive")
	}
	return nil
}
