package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/cachefu/cache"
)

// Config configures a Store.
type Config struct {
	// URL is a redis:// or rediss:// URL. It takes precedence over Addrs.
	URL string

	// Addrs lists host:port addresses. More than one address selects a
	// cluster client.
	Addrs []string

	Password string
	DB       int

	// Namespace is prepended to every key as "<namespace>:".
	Namespace string

	// DialTimeout and ReadTimeout default to the go-redis defaults when zero.
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// Store is a cache.Store backed by Redis.
type Store struct {
	client    redis.UniversalClient
	namespace string
	owned     bool
}

// New creates a Store from cfg.
func New(cfg Config) (*Store, error) {
	var client redis.UniversalClient
	switch {
	case cfg.URL != "":
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("redisstore: parse url: %w", err)
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		if cfg.DialTimeout > 0 {
			opts.DialTimeout = cfg.DialTimeout
		}
		if cfg.ReadTimeout > 0 {
			opts.ReadTimeout = cfg.ReadTimeout
		}
		client = redis.NewClient(opts)
	case len(cfg.Addrs) > 0:
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:       cfg.Addrs,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: cfg.DialTimeout,
			ReadTimeout: cfg.ReadTimeout,
		})
	default:
		return nil, ErrNoAddress
	}

	s := NewWithClient(client, cfg.Namespace)
	s.owned = true
	return s, nil
}

// NewWithClient wraps an existing client. Close does not close it.
func NewWithClient(client redis.UniversalClient, namespace string) *Store {
	return &Store{client: client, namespace: namespace}
}

// Namespace returns the key prefix, without the trailing colon.
func (s *Store) Namespace() string { return s.namespace }

// Read returns the value at key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redisstore: get %s: %w", key, err)
	}
	return val, true, nil
}

// ReadMany returns values for the keys that are present.
func (s *Store) ReadMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.key(key)
	}

	if _, ok := s.client.(*redis.ClusterClient); ok {
		return s.readPipelined(ctx, keys, full)
	}

	vals, err := s.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: mget %d keys: %w", len(keys), err)
	}
	out := make(map[string][]byte, len(vals))
	for i, v := range vals {
		switch val := v.(type) {
		case nil:
		case string:
			out[keys[i]] = []byte(val)
		default:
			return nil, fmt.Errorf("%w: %T for %s", ErrUnexpectedReply, v, keys[i])
		}
	}
	return out, nil
}

func (s *Store) readPipelined(ctx context.Context, keys, full []string) (map[string][]byte, error) {
	cmds := make([]*redis.StringCmd, len(full))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range full {
			cmds[i] = pipe.Get(ctx, k)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redisstore: pipelined get %d keys: %w", len(keys), err)
	}

	out := make(map[string][]byte, len(keys))
	for i, cmd := range cmds {
		val, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redisstore: get %s: %w", keys[i], err)
		}
		out[keys[i]] = val
	}
	return out, nil
}

// Write stores value at key. A non-positive TTL means no expiry.
func (s *Store) Write(ctx context.Context, key string, value []byte, d cache.Directives) error {
	ttl := d.TTL
	if ttl < 0 {
		// go-redis reads -1 as KEEPTTL.
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redisstore: del %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: exists %s: %w", key, err)
	}
	return n > 0, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redisstore: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool when the Store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

func (s *Store) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

var _ cache.Store = (*Store)(nil)
