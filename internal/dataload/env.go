package dataload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reallyasi9/film-margin/internal/config"
	"github.com/reallyasi9/film-margin/internal/supabase"
	"github.com/redis/go-redis/v9"
)

// FromEnv builds the grade and schedule sources named by env. When env names a Redis server the grades are
// cached there. The returned function releases the Redis connection.
func FromEnv(ctx context.Context, env *config.Env) (Sources, func(), error) {
	src := Sources{
		Grades:      supabase.NewClient(env.SupabaseURL, env.SupabaseKey, env.SupabaseTable),
		ScheduleURL: env.ScheduleURL,
	}
	if env.RedisAddr == "" {
		return src, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: env.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return Sources{}, nil, fmt.Errorf("redis ping %s: %w", env.RedisAddr, err)
	}
	src.Grades = supabase.NewCache(rdb, src.Grades, env.SupabaseTable, env.RedisTTL)
	slog.Debug("caching grades in redis", "addr", env.RedisAddr, "ttl", env.RedisTTL)
	return src, func() { rdb.Close() }, nil
}

// Refresh drops any cached copy of the grades so the next Load downloads them again.
func Refresh(ctx context.Context, src Sources) error {
	cache, ok := src.Grades.(*supabase.Cache)
	if !ok {
		return nil
	}
	if err := cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate %s: %w", cache.Key(), err)
	}
	slog.Info("dropped cached grades", "key", cache.Key())
	return nil
}
