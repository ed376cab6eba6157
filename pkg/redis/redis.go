// Package redis opens the optional Redis connection backing the shared rate
// limiter.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mediscribe/mediscribe_backend/config"
)

const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
)

// Options maps the redis config section onto client options, filling
// unset pool sizes and timeouts with defaults.
func Options(c config.RedisConfig) *goredis.Options {
	opts := &goredis.Options{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     orDefault(c.PoolSize, defaultPoolSize),
		MinIdleConns: orDefault(c.MinIdleConns, defaultMinIdleConns),
		DialTimeout:  seconds(c.DialTimeoutSeconds, 5),
		ReadTimeout:  seconds(c.ReadTimeoutSeconds, 3),
		WriteTimeout: seconds(c.WriteTimeoutSeconds, 3),
	}
	return opts
}

// New connects and pings. It returns a nil client and nil error when no
// address is configured.
func New(ctx context.Context, c config.RedisConfig) (*goredis.Client, error) {
	if c.Addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(Options(c))

	pingCtx, cancel := context.WithTimeout(ctx, seconds(c.DialTimeoutSeconds, 5))
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func seconds(v, def int) time.Duration {
	return time.Duration(orDefault(v, def)) * time.Second
}
