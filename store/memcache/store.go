package memcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomemcache "github.com/bradfitz/gomemcache/memcache"

	"github.com/jonwraymond/cachefu/cache"
)

// maxRelativeExpiration is the largest TTL memcached accepts as a relative
// offset. Larger values are read as absolute unix timestamps.
const maxRelativeExpiration = 30 * 24 * time.Hour

// maxKeyLength is memcached's key limit.
const maxKeyLength = cache.DefaultKeySize

// DefaultMaxItemSize is memcached's default slab page size.
const DefaultMaxItemSize = 1 << 20

// Config configures a Store.
type Config struct {
	// Servers lists host:port addresses. Required.
	Servers []string

	// Namespace is prepended to every key as "<namespace>:".
	Namespace string

	// Timeout bounds each network operation. Zero uses the gomemcache default.
	Timeout time.Duration

	// MaxIdleConns per server. Zero uses the gomemcache default.
	MaxIdleConns int

	// MaxItemSize rejects larger values before they reach the server.
	// Zero means DefaultMaxItemSize.
	MaxItemSize int
}

// Store is a cache.Store backed by memcached.
type Store struct {
	client    *gomemcache.Client
	namespace string
	maxItem   int
	now       func() time.Time
}

// New connects a Store to cfg.Servers. Connections are dialled lazily.
func New(cfg Config) (*Store, error) {
	if len(cfg.Servers) == 0 {
		return nil, ErrNoServers
	}
	client := gomemcache.New(cfg.Servers...)
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	if cfg.MaxIdleConns > 0 {
		client.MaxIdleConns = cfg.MaxIdleConns
	}
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing gomemcache client. cfg.Servers is ignored.
func NewWithClient(client *gomemcache.Client, cfg Config) *Store {
	maxItem := cfg.MaxItemSize
	if maxItem <= 0 {
		maxItem = DefaultMaxItemSize
	}
	return &Store{
		client:    client,
		namespace: cfg.Namespace,
		maxItem:   maxItem,
		now:       time.Now,
	}
}

// Namespace returns the key prefix, without the trailing colon.
func (s *Store) Namespace() string { return s.namespace }

// Read returns the value at key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	full, err := s.key(key)
	if err != nil {
		return nil, false, err
	}
	item, err := s.client.Get(full)
	if errors.Is(err, gomemcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("memcache: get %s: %w", key, err)
	}
	return item.Value, true, nil
}

// ReadMany returns values for the keys that are present.
func (s *Store) ReadMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}

	full := make([]string, len(keys))
	owner := make(map[string]string, len(keys))
	for i, key := range keys {
		k, err := s.key(key)
		if err != nil {
			return nil, err
		}
		full[i] = k
		owner[k] = key
	}

	items, err := s.client.GetMulti(full)
	if err != nil {
		return nil, fmt.Errorf("memcache: get_multi %d keys: %w", len(keys), err)
	}
	out := make(map[string][]byte, len(items))
	for k, item := range items {
		if key, ok := owner[k]; ok {
			out[key] = item.Value
		}
	}
	return out, nil
}

// Write stores value at key.
func (s *Store) Write(ctx context.Context, key string, value []byte, d cache.Directives) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(value) > s.maxItem {
		return fmt.Errorf("%w: %s is %d bytes", ErrValueTooLarge, key, len(value))
	}
	full, err := s.key(key)
	if err != nil {
		return err
	}
	err = s.client.Set(&gomemcache.Item{
		Key:        full,
		Value:      value,
		Expiration: expiration(d.TTL, s.now()),
	})
	if err != nil {
		return fmt.Errorf("memcache: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.key(key)
	if err != nil {
		return err
	}
	err = s.client.Delete(full)
	if err != nil && !errors.Is(err, gomemcache.ErrCacheMiss) {
		return fmt.Errorf("memcache: delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key is present. memcached has no existence probe,
// so this is a Get that discards the value.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Read(ctx, key)
	return ok, err
}

// Ping checks every server.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Ping(); err != nil {
		return fmt.Errorf("memcache: ping: %w", err)
	}
	return nil
}

// key prefixes the namespace and checks the result against memcached's text
// protocol limits.
func (s *Store) key(key string) (string, error) {
	full := key
	if s.namespace != "" {
		full = s.namespace + ":" + key
	}
	if err := cache.ValidateKey(full, maxKeyLength); err != nil {
		return "", fmt.Errorf("memcache: key %q: %w", full, err)
	}
	return full, nil
}

// expiration converts a TTL to memcached's expiration field.
func expiration(ttl time.Duration, now time.Time) int32 {
	switch {
	case ttl <= 0:
		return 0
	case ttl < time.Second:
		return 1
	case ttl > maxRelativeExpiration:
		return int32(now.Add(ttl).Unix())
	default:
		return int32(ttl / time.Second)
	}
}

var _ cache.Store = (*Store)(nil)
