package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix prefixes the Redis key of each cached table.
	KeyPrefix = "filmmargin:grades:"
	// DefaultTTL is how long a downloaded table stays cached.
	DefaultTTL = 6 * time.Hour
)

// Cache serves a table from Redis, falling back to the wrapped source when the copy is missing or unreadable.
type Cache struct {
	client *redis.Client
	src    Source
	key    string
	ttl    time.Duration
}

// NewCache wraps src with a Redis cache of the named table. A non-positive ttl means DefaultTTL.
func NewCache(client *redis.Client, src Source, table string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, src: src, key: KeyPrefix + table, ttl: ttl}
}

// Key returns the Redis key holding the cached rows.
func (c *Cache) Key() string {
	return c.key
}

// Grades implements Source.
func (c *Cache) Grades(ctx context.Context) ([]GradeRow, error) {
	rows, err := c.read(ctx)
	switch {
	case err == nil:
		return rows, nil
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("grade cache unavailable", "key", c.key, "error", err)
	}

	rows, err = c.src.Grades(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.write(ctx, rows); err != nil {
		slog.Warn("could not cache grades", "key", c.key, "error", err)
	}
	return rows, nil
}

// Invalidate drops the cached copy.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

func (c *Cache) read(ctx context.Context) ([]GradeRow, error) {
	b, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		return nil, err
	}
	var rows []GradeRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal grades: %w", err)
	}
	return rows, nil
}

func (c *Cache) write(ctx context.Context, rows []GradeRow) error {
	b, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal grades: %w", err)
	}
	return c.client.Set(ctx, c.key, string(b), c.ttl).Err()
}
