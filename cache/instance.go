package cache

import "context"

// RecordCacheID returns rec's cache identity, extended with sub when set.
func (c *Client[T]) RecordCacheID(rec T, sub string) string {
	id := IdentityOf(rec)
	if sub == "" {
		return id
	}
	return id + c.keys.Separator() + sub
}

// GetRecord reads rec through the cache under its versioned identity. On a
// miss the record is refetched from the source by its primary identifier.
func (c *Client[T]) GetRecord(ctx context.Context, rec T, opts Options) (T, bool, error) {
	var zero T
	key, err := c.keys.KeyFor(IdentityOf(rec), opts)
	if err != nil {
		return zero, false, err
	}
	return readThrough(ctx, c.engine, "get_record", key, opts, c.fetchOne(rec.PrimaryID(), opts))
}

// SetRecord stores rec under its versioned identity.
func (c *Client[T]) SetRecord(ctx context.Context, rec T, opts Options) error {
	key, err := c.keys.KeyFor(IdentityOf(rec), opts)
	if err != nil {
		return err
	}
	return c.tel.Run(ctx, c.meta("set_record", opts, 1), func(ctx context.Context) error {
		return c.write(ctx, key, rec, !isNil(rec), opts)
	})
}

// ExpireRecord deletes the entry for rec's current identity.
func (c *Client[T]) ExpireRecord(ctx context.Context, rec T, opts Options) error {
	key, err := c.keys.KeyFor(IdentityOf(rec), opts)
	if err != nil {
		return err
	}
	return c.tel.Run(ctx, c.meta("expire_record", opts, 1), func(ctx context.Context) error {
		return c.delete(ctx, key)
	})
}

// RecordCached reports whether an entry exists for rec's current identity.
func (c *Client[T]) RecordCached(ctx context.Context, rec T, opts Options) (bool, error) {
	key, err := c.keys.KeyFor(IdentityOf(rec), opts)
	if err != nil {
		return false, err
	}
	var ok bool
	err = c.tel.Run(ctx, c.meta("record_cached", opts, 1), func(ctx context.Context) error {
		var err error
		ok, err = c.exists(ctx, key)
		return err
	})
	return ok, err
}

// ResetRecord refetches rec from the source and stores the fresh copy under
// its own identity. When the record no longer exists, the absent-sentinel is
// written under rec's identity instead.
func (c *Client[T]) ResetRecord(ctx context.Context, rec T, opts Options) (T, bool, error) {
	var (
		zero  T
		fresh T
		found bool
	)
	err := c.tel.Run(ctx, c.meta("reset_record", opts, 1), func(ctx context.Context) error {
		var err error
		fresh, found, err = c.fetchOne(rec.PrimaryID(), opts)(ctx)
		if err != nil {
			return err
		}
		found = found && !isNil(fresh)

		identity := IdentityOf(rec)
		if found {
			identity = IdentityOf(fresh)
		}
		key, err := c.keys.KeyFor(identity, opts)
		if err != nil {
			return err
		}
		return c.write(ctx, key, fresh, found, opts)
	})
	if err != nil || !found {
		return zero, false, err
	}
	return fresh, true, nil
}
