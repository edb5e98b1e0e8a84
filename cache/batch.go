package cache

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/cachefu/observe"
)

// LookupIdentifier is implemented by records fetched by something other than
// their primary identifier (see Config.FindBy). Fetched records are paired
// with requested identifiers by LookupID when present, PrimaryID otherwise.
// Batches with a find_by finder require it.
type LookupIdentifier interface {
	LookupID() string
}

func lookupID(rec Record) string {
	if l, ok := rec.(LookupIdentifier); ok {
		return l.LookupID()
	}
	return rec.PrimaryID()
}

// IDs normalizes identifiers to strings, flattening nested slices and
// dropping nils. Order and duplicates are preserved.
func IDs(values ...any) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch x := v.(type) {
		case nil:
		case string:
			out = append(out, x)
		case []byte:
			out = append(out, string(x))
		case []string:
			out = append(out, x...)
		case fmt.Stringer:
			out = append(out, x.String())
		default:
			rv := reflect.ValueOf(v)
			switch rv.Kind() {
			case reflect.Slice, reflect.Array:
				for i := 0; i < rv.Len(); i++ {
					walk(rv.Index(i).Interface())
				}
			case reflect.Pointer:
				if !rv.IsNil() {
					walk(rv.Elem().Interface())
				}
			default:
				out = append(out, fmt.Sprint(v))
			}
		}
	}
	for _, v := range values {
		walk(v)
	}
	return out
}

// GetBatch resolves many identifiers with one bulk store read and at most one
// bulk data-source fetch.
//
// Entries found in the store (the absent-sentinel included) are hits. The
// remaining identifiers are fetched together; every fetched record is written
// back under the identifier it answers, and every requested identifier the
// source did not return is written as the absent-sentinel. Records the source
// reports under an identifier that was not requested are dropped, and their
// batch writes no absent-sentinel. The result maps identifier to record and
// omits identifiers that resolved to absence. Page and PerPage are not passed to
// the source.
//
// If backfill writes fail the error wraps ErrBackfill and the returned map
// still holds every resolved record.
func (c *Client[T]) GetBatch(ctx context.Context, ids []string, opts Options) (map[string]T, error) {
	if len(ids) == 0 {
		return map[string]T{}, nil
	}
	var result map[string]T
	meta := c.meta("get_batch", opts, len(ids))
	err := c.tel.Run(ctx, meta, func(ctx context.Context) error {
		var err error
		result, err = c.getBatch(ctx, meta, ids, opts)
		return err
	})
	return result, err
}

// GetMany is GetBatch returning records in the order of ids. Positions whose
// identifier resolved to absence hold the zero value of T.
func (c *Client[T]) GetMany(ctx context.Context, ids []string, opts Options) ([]T, error) {
	found, err := c.GetBatch(ctx, ids, opts)
	if found == nil {
		return nil, err
	}
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = found[id]
	}
	return out, err
}

// ResetMany fetches ids in one call and overwrites their entries, writing the
// absent-sentinel for identifiers the source did not return. The fetched
// records are returned in source order.
func (c *Client[T]) ResetMany(ctx context.Context, ids []string, opts Options) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recs []T
	ids = unique(ids)
	meta := c.meta("reset_many", opts, len(ids))
	err := c.tel.Run(ctx, meta, func(ctx context.Context) error {
		if err := c.checkBatchFinder(opts); err != nil {
			return err
		}
		var err error
		if recs, err = c.fetchMany(ctx, meta, ids, opts); err != nil {
			return err
		}
		matched, strays := match(ids, recs)
		return c.backfill(ctx, meta, ids, matched, strays, opts)
	})
	return recs, err
}

func (c *Client[T]) getBatch(ctx context.Context, meta observe.OpMeta, ids []string, opts Options) (map[string]T, error) {
	if err := c.checkBatchFinder(opts); err != nil {
		return nil, err
	}
	result := make(map[string]T, len(ids))

	if c.cfg.Disabled {
		recs, err := c.fetchMany(ctx, meta, unique(ids), opts)
		if err != nil {
			return nil, err
		}
		matched, _ := match(ids, recs)
		maps.Copy(result, matched)
		return result, nil
	}

	keys, err := c.keys.KeysFor(ids, opts)
	if err != nil {
		return nil, err
	}
	owner := make(map[string]string, len(keys))
	for i, key := range keys {
		owner[key] = ids[i]
	}

	var stored map[string][]byte
	if !c.cfg.SkipReads {
		if stored, err = c.store.ReadMany(ctx, keys); err != nil {
			return nil, fmt.Errorf("cache: read %d keys: %w", len(keys), err)
		}
	}

	var (
		missing []string
		hits    int
		seen    = make(map[string]struct{}, len(keys))
	)
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		data, ok := stored[key]
		if !ok || data == nil {
			missing = append(missing, owner[key])
			continue
		}
		hits++
		rec, found, err := decode[T](c.engine, key, data)
		if err != nil {
			return nil, err
		}
		if found {
			result[owner[key]] = rec
		}
	}
	c.tel.Metrics().RecordLookup(ctx, meta, hits, len(missing))

	if len(missing) == 0 {
		return result, nil
	}

	recs, err := c.fetchMany(ctx, meta, missing, opts)
	if err != nil {
		return nil, err
	}
	matched, strays := match(missing, recs)
	maps.Copy(result, matched)
	return result, c.backfill(ctx, meta, missing, matched, strays, opts)
}

// checkBatchFinder rejects find_by batches for records that cannot report the
// value they were found by, since such records cannot be paired with the
// requested identifiers.
func (c *Client[T]) checkBatchFinder(opts Options) error {
	finder := c.sourceOptions(opts).Finder
	if !strings.HasPrefix(finder, findByPrefix) {
		return nil
	}
	if reflect.TypeFor[T]().Implements(reflect.TypeFor[LookupIdentifier]()) {
		return nil
	}
	return fmt.Errorf("%w: %s with finder %s", ErrNoLookupID, c.cfg.Scope, finder)
}

// fetchMany loads ids in one source call. Pagination is dropped because every
// identifier is cached on its own and a page limit would hide existing records.
func (c *Client[T]) fetchMany(ctx context.Context, meta observe.OpMeta, ids []string, opts Options) ([]T, error) {
	if c.source == nil {
		return nil, ErrNilSource
	}
	c.tel.Metrics().RecordFetch(ctx, meta, len(ids))
	sopts := c.sourceOptions(opts)
	sopts.Page, sopts.PerPage = 0, 0
	recs, err := c.source.FetchMany(ctx, ids, sopts)
	if err != nil {
		return nil, fmt.Errorf("cache: fetch %d %s records: %w", len(ids), c.cfg.Scope, err)
	}
	out := recs[:0:0]
	for _, rec := range recs {
		if !isNil(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// match pairs fetched records with the requested identifiers they answer.
// Records reported under an identifier nobody requested are strays.
func match[T Record](requested []string, recs []T) (matched map[string]T, strays []T) {
	want := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		want[id] = struct{}{}
	}
	matched = make(map[string]T, len(recs))
	for _, rec := range recs {
		id := lookupID(rec)
		if _, ok := want[id]; !ok {
			strays = append(strays, rec)
			continue
		}
		matched[id] = rec
	}
	return matched, strays
}

type pendingWrite struct {
	key   string
	value any
	found bool
}

// backfill writes every matched record under its requested identifier, then
// the absent-sentinel for requested identifiers left unmatched. When the
// source returned strays an unmatched identifier may still exist under a
// different spelling, so no absent-sentinel is written at all.
func (c *Client[T]) backfill(ctx context.Context, meta observe.OpMeta, requested []string, matched map[string]T, strays []T, opts Options) error {
	if c.cfg.Disabled {
		return nil
	}
	if len(strays) > 0 {
		c.tel.Logger().WithOp(meta).Warn(ctx, "batch fetch returned unrequested identifiers",
			observe.F("unmatched", len(strays)),
			observe.F("requested", len(requested)),
		)
	}

	ids := make([]string, 0, len(requested))
	values := make([]any, 0, len(requested))
	for _, id := range requested {
		if rec, ok := matched[id]; ok {
			ids = append(ids, id)
			values = append(values, rec)
		} else if len(strays) == 0 {
			ids = append(ids, id)
			values = append(values, nil)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	keys, err := c.keys.KeysFor(ids, opts)
	if err != nil {
		return err
	}
	writes := make([]pendingWrite, len(keys))
	for i, key := range keys {
		writes[i] = pendingWrite{key: key, value: values[i], found: values[i] != nil}
	}
	return c.flush(ctx, meta, writes, opts)
}

func (e *engine) flush(ctx context.Context, meta observe.OpMeta, writes []pendingWrite, opts Options) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(max(e.cfg.BackfillConcurrency, 1))
	for _, w := range writes {
		g.Go(func() error {
			if err := e.write(ctx, w.key, w.value, w.found, opts); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) == 0 {
		return nil
	}
	err := errors.Join(errs...)
	if e.cfg.TolerateWriteErrors {
		e.tel.Logger().WithOp(meta).Warn(ctx, "backfill write failed",
			observe.F("failed", len(errs)),
			observe.F("writes", len(writes)),
			observe.F("error", err),
		)
		return nil
	}
	return fmt.Errorf("%w: %w", ErrBackfill, err)
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
