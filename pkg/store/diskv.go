// Package store adapts a two-partition, document-granular key-value store.
//
// The synced partition is small, quota-limited and shared between devices; the
// local partition is larger and belongs to a single machine. Values are whole
// documents: callers read a key, change it in memory and write the full value
// back. There is no field-level update and no locking, so concurrent writers
// resolve as last-writer-wins.
package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// Partition names one half of the store.
type Partition string

const (
	Synced Partition = "synced"
	Local  Partition = "local"
)

var (
	// ErrNotFound is returned by Get when a key has never been written.
	ErrNotFound = errors.New("store: key not found")
	// ErrQuotaExceeded is returned by writes that would overflow the synced partition.
	ErrQuotaExceeded = errors.New("store: quota exceeded")
)

// Bucket is a single partition.
type Bucket interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Persistence defines the persistence contract shared by every quickmsg store.
type Persistence interface {
	Bucket(p Partition) Bucket
	Watch(ctx context.Context) (<-chan Event, error)
	Close() error
}

// Config describes where partitions live.
type Config interface {
	BasePath() string
	SyncedOptions() SyncedOptions
}

// SyncedOptions configures the synced partition. PostgresDSN takes
// precedence over RedisAddr; with neither set the partition lives on disk.
type SyncedOptions struct {
	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string

	QuotaBytes        int
	QuotaBytesPerItem int
}

// Load creates a Persistence backed by diskv, with Postgres or Redis behind
// the synced partition when one is configured.
func Load(cfg Config) (Persistence, error) {
	if cfg == nil {
		return nil, errors.New("store: config required")
	}
	basePath := strings.TrimSpace(cfg.BasePath())
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}

	p := &persistence{
		basePath: basePath,
		disks:    make(map[Partition]string),
	}

	local, err := newDiskBucket(filepath.Join(basePath, string(Local)))
	if err != nil {
		return nil, err
	}
	p.local = local
	p.disks[Local] = local.basePath

	opts := cfg.SyncedOptions()
	var synced Bucket
	switch {
	case opts.PostgresDSN != "":
		pb, err := newPostgresBucket(context.Background(), opts.PostgresDSN, Synced)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, pb.Close)
		synced = pb
	case opts.RedisAddr != "":
		rb, err := newRedisBucket(opts)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, rb.Close)
		synced = rb
	default:
		db, err := newDiskBucket(filepath.Join(basePath, string(Synced)))
		if err != nil {
			return nil, err
		}
		p.disks[Synced] = db.basePath
		synced = db
	}
	p.synced = withQuota(synced, opts.QuotaBytes, opts.QuotaBytesPerItem)
	return p, nil
}

type persistence struct {
	basePath string
	local    Bucket
	synced   Bucket
	disks    map[Partition]string
	closers  []func() error
}

func (p *persistence) Bucket(part Partition) Bucket {
	if part == Synced {
		return p.synced
	}
	return p.local
}

func (p *persistence) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type diskBucket struct {
	d        *diskv.Diskv
	basePath string
}

func newDiskBucket(basePath string) (*diskBucket, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &diskBucket{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			// No read cache: other processes write the same files.
			CacheSizeMax: 0,
		}),
		basePath: basePath,
	}, nil
}

func (b *diskBucket) Get(_ context.Context, key string) ([]byte, error) {
	if !b.d.Has(key) {
		return nil, ErrNotFound
	}
	val, err := b.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: read %s: %w", key, err)
	}
	return val, nil
}

func (b *diskBucket) Set(_ context.Context, key string, value []byte) error {
	if err := b.d.Write(key, value); err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return nil
}

func (b *diskBucket) Remove(_ context.Context, key string) error {
	if !b.d.Has(key) {
		return nil
	}
	if err := b.d.Erase(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: erase %s: %w", key, err)
	}
	return nil
}

func (b *diskBucket) Keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0)
	for key := range b.d.Keys(ctx.Done()) {
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Keys are stored flat, one file per key, with the file name base64url
// encoded so arbitrary key text is a valid file name.
func keyToPathTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{
		Path:     []string{},
		FileName: base64.RawURLEncoding.EncodeToString([]byte(key)),
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fileNameToKey(pathKey.FileName)
}

func fileNameToKey(name string) string {
	key, err := base64.RawURLEncoding.DecodeString(name)
	if err != nil {
		return ""
	}
	return string(key)
}
