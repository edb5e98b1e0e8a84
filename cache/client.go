package cache

import (
	"context"
	"fmt"
	"reflect"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/cachefu/observe"
)

// DataSource resolves identifiers to records.
//
// Contract:
//   - FetchOne returns (zero, false, nil) when no record exists.
//   - FetchMany is a single round trip; the result order need not match ids
//     and identifiers without a record are simply left out.
//   - Errors are returned to the caller unchanged and nothing is cached.
type DataSource[T Record] interface {
	FetchOne(ctx context.Context, id string, opts Options) (T, bool, error)
	FetchMany(ctx context.Context, ids []string, opts Options) ([]T, error)
}

// Producer computes a value on a cache miss. Returning found=false caches the
// absent-sentinel so later reads do not call the producer again.
type Producer[V any] func(ctx context.Context) (V, bool, error)

// Option configures a Client.
type Option func(*settings)

type settings struct {
	codec     Codec
	telemetry *observe.Middleware
	observer  observe.Observer
}

// WithCodec sets the value codec. Default JSONCodec.
func WithCodec(c Codec) Option {
	return func(s *settings) { s.codec = c }
}

// WithMiddleware sets the telemetry middleware.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(s *settings) { s.telemetry = mw }
}

// WithObserver derives the telemetry middleware from obs.
func WithObserver(obs observe.Observer) Option {
	return func(s *settings) { s.observer = obs }
}

// engine holds everything that does not depend on the record type, so the
// generic helpers in this package can share it across value types.
type engine struct {
	cfg   Config
	store Store
	keys  *Keyer
	codec Codec
	tel   *observe.Middleware
	group singleflight.Group
}

// Client is a read-through cache over one record type.
//
// All derived configuration (separator, key budget, default finder) is
// computed once in New and never changes. A Client holds no other state and
// is safe for concurrent use.
type Client[T Record] struct {
	*engine
	source DataSource[T]
}

// New creates a Client. store may be nil only when cfg.Disabled is set.
// source may be nil if the client is only used with explicit producers.
func New[T Record](cfg Config, store Store, source DataSource[T], opts ...Option) (*Client[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil && !cfg.Disabled {
		return nil, ErrNilStore
	}

	s := settings{codec: JSONCodec{}}
	for _, opt := range opts {
		opt(&s)
	}
	if s.telemetry == nil && s.observer != nil {
		mw, err := observe.MiddlewareFromObserver(s.observer)
		if err != nil {
			return nil, fmt.Errorf("cache: telemetry: %w", err)
		}
		s.telemetry = mw
	}
	if s.telemetry == nil {
		s.telemetry = observe.NopMiddleware()
	}

	keys, err := NewKeyer(cfg)
	if err != nil {
		return nil, err
	}

	return &Client[T]{
		engine: &engine{
			cfg:   cfg,
			store: store,
			keys:  keys,
			codec: s.codec,
			tel:   s.telemetry,
		},
		source: source,
	}, nil
}

// Config returns the validated configuration.
func (c *Client[T]) Config() Config { return c.cfg }

// Keyer returns the key builder.
func (c *Client[T]) Keyer() *Keyer { return c.keys }

// Key returns the store key for id under opts.
func (c *Client[T]) Key(id string, opts Options) (string, error) {
	return c.keys.KeyFor(id, opts)
}

// Get returns the record for id, reading through to the data source on a miss.
// found is false when the record does not exist, whether that was learned
// from the cache or from the source.
func (c *Client[T]) Get(ctx context.Context, id string, opts Options) (T, bool, error) {
	return c.GetWith(ctx, id, opts, nil)
}

// GetWith is Get with an explicit producer for the miss path. A nil producer
// falls back to the data source.
func (c *Client[T]) GetWith(ctx context.Context, id string, opts Options, produce Producer[T]) (T, bool, error) {
	var zero T
	key, err := c.keys.KeyFor(id, opts)
	if err != nil {
		return zero, false, err
	}
	if produce == nil {
		produce = c.fetchOne(id, opts)
	}
	return readThrough(ctx, c.engine, "get", key, opts, produce)
}

// Set stores value under id and returns it unchanged. A nil value stores the
// absent-sentinel.
func (c *Client[T]) Set(ctx context.Context, id string, value T, opts Options) (T, error) {
	key, err := c.keys.KeyFor(id, opts)
	if err != nil {
		return value, err
	}
	err = c.tel.Run(ctx, c.meta("set", opts, 1), func(ctx context.Context) error {
		return c.write(ctx, key, value, !isNil(value), opts)
	})
	return value, err
}

// Expire deletes the entry for id. Expiring a missing entry is not an error.
func (c *Client[T]) Expire(ctx context.Context, id string, opts Options) error {
	key, err := c.keys.KeyFor(id, opts)
	if err != nil {
		return err
	}
	return c.tel.Run(ctx, c.meta("expire", opts, 1), func(ctx context.Context) error {
		return c.delete(ctx, key)
	})
}

// Exists reports whether the store holds an entry for id, absent-sentinel included.
func (c *Client[T]) Exists(ctx context.Context, id string, opts Options) (bool, error) {
	key, err := c.keys.KeyFor(id, opts)
	if err != nil {
		return false, err
	}
	var ok bool
	err = c.tel.Run(ctx, c.meta("exists", opts, 1), func(ctx context.Context) error {
		var err error
		ok, err = c.exists(ctx, key)
		return err
	})
	return ok, err
}

// Reset fetches id from the data source and overwrites its entry regardless
// of what the cache holds.
func (c *Client[T]) Reset(ctx context.Context, id string, opts Options) (T, bool, error) {
	var zero T
	key, err := c.keys.KeyFor(id, opts)
	if err != nil {
		return zero, false, err
	}
	return refresh(ctx, c.engine, "reset", key, opts, c.fetchOne(id, opts))
}

func (c *Client[T]) fetchOne(id string, opts Options) Producer[T] {
	return func(ctx context.Context) (T, bool, error) {
		var zero T
		if c.source == nil {
			return zero, false, ErrNilSource
		}
		c.tel.Metrics().RecordFetch(ctx, c.meta("fetch_one", opts, 1), 1)
		return c.source.FetchOne(ctx, id, c.sourceOptions(opts))
	}
}

// sourceOptions strips reserved args and fills in the default finder.
func (e *engine) sourceOptions(opts Options) Options {
	opts = opts.Filtered()
	if opts.Finder == "" {
		opts.Finder = e.cfg.Finder
	}
	return opts
}

func (e *engine) meta(op string, opts Options, keys int) observe.OpMeta {
	return observe.OpMeta{
		Scope:     e.cfg.Scope,
		Operation: op,
		Namespace: opts.Namespace,
		Keys:      keys,
	}
}

// readThrough serves key from the store, or fills it from produce on a miss.
func readThrough[V any](ctx context.Context, e *engine, op, key string, opts Options, produce Producer[V]) (V, bool, error) {
	var (
		value V
		found bool
	)
	meta := e.meta(op, opts, 1)
	err := e.tel.Run(ctx, meta, func(ctx context.Context) error {
		var err error
		value, found, err = lookup(ctx, e, meta, key, opts, produce)
		return err
	})
	return value, found, err
}

func lookup[V any](ctx context.Context, e *engine, meta observe.OpMeta, key string, opts Options, produce Producer[V]) (V, bool, error) {
	var zero V
	if e.cfg.Disabled {
		return produce(ctx)
	}

	if !e.cfg.SkipReads {
		data, ok, err := e.store.Read(ctx, key)
		if err != nil {
			return zero, false, fmt.Errorf("cache: read %s: %w", key, err)
		}
		if ok {
			e.tel.Metrics().RecordLookup(ctx, meta, 1, 0)
			return decode[V](e, key, data)
		}
	}
	e.tel.Metrics().RecordLookup(ctx, meta, 0, 1)

	if !e.cfg.CoalesceMisses {
		return fill(ctx, e, key, opts, produce)
	}

	res, err, _ := e.group.Do(key, func() (any, error) {
		v, found, err := fill(ctx, e, key, opts, produce)
		return filled[V]{v, found}, err
	})
	if err != nil {
		return zero, false, err
	}
	if r, ok := res.(filled[V]); ok {
		return r.value, r.found, nil
	}
	// Another value type shared the key; fall back to an uncoalesced fill.
	return fill(ctx, e, key, opts, produce)
}

type filled[V any] struct {
	value V
	found bool
}

// refresh always calls produce and overwrites key.
func refresh[V any](ctx context.Context, e *engine, op, key string, opts Options, produce Producer[V]) (V, bool, error) {
	var (
		value V
		found bool
	)
	err := e.tel.Run(ctx, e.meta(op, opts, 1), func(ctx context.Context) error {
		var err error
		value, found, err = fill(ctx, e, key, opts, produce)
		return err
	})
	return value, found, err
}

func fill[V any](ctx context.Context, e *engine, key string, opts Options, produce Producer[V]) (V, bool, error) {
	var zero V
	value, found, err := produce(ctx)
	if err != nil {
		return zero, false, err
	}
	found = found && !isNil(value)
	if err := e.write(ctx, key, value, found, opts); err != nil {
		return zero, false, err
	}
	if !found {
		return zero, false, nil
	}
	return value, true, nil
}

func decode[V any](e *engine, key string, data []byte) (V, bool, error) {
	var v V
	if IsAbsent(data) {
		return v, false, nil
	}
	if err := e.codec.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("%w: %s: %v", ErrDecode, key, err)
	}
	return v, true, nil
}

func (e *engine) write(ctx context.Context, key string, value any, found bool, opts Options) error {
	if e.cfg.Disabled {
		return nil
	}
	data := absentSentinel
	if found {
		var err error
		if data, err = e.codec.Marshal(value); err != nil {
			return fmt.Errorf("cache: encode %s: %w", key, err)
		}
	}
	d := Directives{TTL: e.cfg.Policy.EffectiveTTL(opts.TTL)}
	if err := e.store.Write(ctx, key, data, d); err != nil {
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	return nil
}

func (e *engine) delete(ctx context.Context, key string) error {
	if e.cfg.Disabled {
		return nil
	}
	if err := e.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache: delete %s: %w", key, err)
	}
	return nil
}

func (e *engine) exists(ctx context.Context, key string) (bool, error) {
	if e.cfg.Disabled {
		return false, nil
	}
	ok, err := e.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("cache: exists %s: %w", key, err)
	}
	return ok, nil
}

// isNil reports whether v is nil or a nil pointer, map, slice or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
