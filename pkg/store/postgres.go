package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS quickmsg_kv (
	partition  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      BYTEA       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (partition, key)
)`

// pgBucket backs a partition with one Postgres table shared by every
// device pointed at the same database.
type pgBucket struct {
	db        *sql.DB
	partition string
}

func newPostgresBucket(ctx context.Context, dsn string, part Partition) (*pgBucket, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create table: %w", err)
	}
	return newPostgresBucketWithDB(db, part), nil
}

func newPostgresBucketWithDB(db *sql.DB, part Partition) *pgBucket {
	return &pgBucket{db: db, partition: string(part)}
}

func (b *pgBucket) Get(ctx context.Context, key string) ([]byte, error) {
	var val []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM quickmsg_kv WHERE partition = $1 AND key = $2`,
		b.partition, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: postgres get %s: %w", key, err)
	}
	return val, nil
}

func (b *pgBucket) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO quickmsg_kv (partition, key, value, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (partition, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		b.partition, key, value)
	if err != nil {
		return fmt.Errorf("store: postgres set %s: %w", key, err)
	}
	return nil
}

func (b *pgBucket) Remove(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM quickmsg_kv WHERE partition = $1 AND key = $2`,
		b.partition, key)
	if err != nil {
		return fmt.Errorf("store: postgres delete %s: %w", key, err)
	}
	return nil
}

func (b *pgBucket) Keys(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT key FROM quickmsg_kv WHERE partition = $1 ORDER BY key`,
		b.partition)
	if err != nil {
		return nil, fmt.Errorf("store: postgres keys: %w", err)
	}
	defer rows.Close()
	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (b *pgBucket) Close() error {
	return b.db.Close()
}
