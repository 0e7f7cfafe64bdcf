// Package redis provides the Redis-backed key-value store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/greenpoint-eco/greenpoint/internal/infra/logger"
	"github.com/greenpoint-eco/greenpoint/internal/infra/store"
)

// KV stores records as plain Redis strings.
type KV struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

var _ store.KV = (*KV)(nil)

// Options configures the Redis connection.
type Options struct {
	// URL is a redis:// URL; Addr is used when URL is empty.
	URL    string
	Addr   string
	DB     int
	Prefix string
}

// New connects and pings Redis.
func New(ctx context.Context, opts Options, log *logger.Logger) (*KV, error) {
	log = logger.OrNop(log)

	var ro *goredis.Options
	if u := strings.TrimSpace(opts.URL); u != "" {
		parsed, err := goredis.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		ro = parsed
	} else {
		addr := strings.TrimSpace(opts.Addr)
		if addr == "" {
			return nil, fmt.Errorf("missing redis address")
		}
		ro = &goredis.Options{Addr: addr, DB: opts.DB}
	}
	ro.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &KV{
		log:    log.Component("redis-kv"),
		rdb:    rdb,
		prefix: opts.Prefix,
	}, nil
}

func (k *KV) key(key string) string { return k.prefix + key }

// Get returns the value at key, or store.ErrKeyNotFound.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := k.rdb.Get(ctx, k.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		k.log.Warn("redis get failed", "key", key, "error", err)
		return nil, err
	}
	return v, nil
}

// Set writes value at key with no expiry.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	return k.rdb.Set(ctx, k.key(key), value, 0).Err()
}

// Delete removes key.
func (k *KV) Delete(ctx context.Context, key string) error {
	return k.rdb.Del(ctx, k.key(key)).Err()
}

// Close closes the client.
func (k *KV) Close() error {
	if k == nil || k.rdb == nil {
		return nil
	}
	return k.rdb.Close()
}
