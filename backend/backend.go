package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/cachefu/cache"
	"github.com/jonwraymond/cachefu/health"
	"github.com/jonwraymond/cachefu/secret"
	"github.com/jonwraymond/cachefu/store/memcache"
	"github.com/jonwraymond/cachefu/store/redisstore"
)

// Kind selects a store implementation.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindMemcache Kind = "memcache"
	KindRedis    Kind = "redis"
)

// Config describes a store. Servers, URL, Password and Namespace accept
// ${VAR} and secretref references.
type Config struct {
	// Kind selects the store. Default KindMemory.
	Kind Kind

	// Servers lists host:port addresses. An entry may expand to a
	// comma-separated list.
	Servers []string

	// URL is a redis:// URL; it takes precedence over Servers for Redis.
	URL string

	Password string
	DB       int

	// Namespace is the store-side key prefix. The in-process store ignores it.
	Namespace string

	// Timeout bounds each network operation.
	Timeout time.Duration

	// MaxItemSize caps memcached values. Zero uses the memcached default.
	MaxItemSize int

	// DegradedLatency marks slow pings as degraded in health checks.
	DegradedLatency time.Duration

	// MaxEntries bounds the in-process store for health reporting.
	MaxEntries int
}

// Resolve returns a copy of c with environment and secret references
// replaced using r.
func (c Config) Resolve(ctx context.Context, r *secret.Resolver) (Config, error) {
	var errs []error
	resolve := func(v string) string {
		out, err := r.ResolveValue(ctx, v)
		if err != nil {
			errs = append(errs, err)
		}
		return out
	}

	servers, err := resolveServers(ctx, r, c.Servers)
	if err != nil {
		errs = append(errs, err)
	}
	c.Servers = servers
	c.URL = resolve(c.URL)
	c.Password = resolve(c.Password)
	c.Namespace = resolve(c.Namespace)
	if len(errs) > 0 {
		return c, errors.Join(errs...)
	}
	return c, nil
}

// Validate applies defaults and checks the configuration. Call it on a
// resolved Config.
func (c *Config) Validate() error {
	if c.Kind == "" {
		c.Kind = KindMemory
	}
	switch c.Kind {
	case KindMemory:
		return nil
	case KindMemcache:
		if len(c.Servers) == 0 {
			return fmt.Errorf("%w for %s", ErrNoServers, c.Kind)
		}
	case KindRedis:
		if len(c.Servers) == 0 && c.URL == "" {
			return fmt.Errorf("%w for %s", ErrNoServers, c.Kind)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
	return nil
}

// Backend is an opened store plus its health checker.
type Backend struct {
	kind      Kind
	store     cache.Store
	namespace string
	checker   health.Checker
	close     func() error
}

// Option configures Open.
type Option func(*openSettings)

type openSettings struct {
	secrets *secret.Resolver
}

// WithSecrets sets the resolver for configuration references.
// Default secret.DefaultResolver.
func WithSecrets(r *secret.Resolver) Option {
	return func(s *openSettings) { s.secrets = r }
}

// Open resolves, validates and connects cfg.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Backend, error) {
	settings := openSettings{}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.secrets == nil {
		settings.secrets = secret.DefaultResolver()
	}

	cfg, err := cfg.Resolve(ctx, settings.secrets)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{kind: cfg.Kind, close: func() error { return nil }}
	ping := health.PingConfig{DegradedLatency: cfg.DegradedLatency}

	switch cfg.Kind {
	case KindMemory:
		s := cache.NewMemoryStore()
		b.store = s
		b.checker = health.NewCapacityChecker(string(cfg.Kind), s, health.CapacityConfig{MaxEntries: cfg.MaxEntries})
	case KindMemcache:
		s, err := memcache.New(memcache.Config{
			Servers:     cfg.Servers,
			Namespace:   cfg.Namespace,
			Timeout:     cfg.Timeout,
			MaxItemSize: cfg.MaxItemSize,
		})
		if err != nil {
			return nil, err
		}
		b.store, b.namespace = s, s.Namespace()
		b.checker = health.NewPingChecker(string(cfg.Kind), s, ping)
	case KindRedis:
		s, err := redisstore.New(redisstore.Config{
			URL:         cfg.URL,
			Addrs:       cfg.Servers,
			Password:    cfg.Password,
			DB:          cfg.DB,
			Namespace:   cfg.Namespace,
			DialTimeout: cfg.Timeout,
			ReadTimeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		b.store, b.namespace, b.close = s, s.Namespace(), s.Close
		b.checker = health.NewPingChecker(string(cfg.Kind), s, ping)
	}
	return b, nil
}

// Kind returns the store kind.
func (b *Backend) Kind() Kind { return b.kind }

// Store returns the opened store.
func (b *Backend) Store() cache.Store { return b.store }

// Namespace returns the store-side key prefix, empty for the in-process store.
func (b *Backend) Namespace() string { return b.namespace }

// Configure sets cfg.StoreNamespace so client keys fit the store's budget.
func (b *Backend) Configure(cfg *cache.Config) {
	cfg.StoreNamespace = b.namespace
}

// Checker returns the store's health checker.
func (b *Backend) Checker() health.Checker { return b.checker }

// Register adds the store's checker to agg under its kind.
func (b *Backend) Register(agg *health.Aggregator) {
	agg.Register(string(b.kind), b.checker)
}

// Check runs the store's health check.
func (b *Backend) Check(ctx context.Context) health.Result {
	return b.checker.Check(ctx)
}

// Close releases connections held by the store.
func (b *Backend) Close() error {
	return b.close()
}
