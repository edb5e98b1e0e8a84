package cache

import (
	"fmt"
	"strings"
	"time"
)

// findByPrefix names a data-source lookup on one column, e.g. "find_by_slug".
const findByPrefix = "find_by_"

// Policy configures entry lifetimes.
type Policy struct {
	// DefaultTTL is used when a call does not set Options.TTL.
	// Zero defers to the store default, which for memcached and Redis is no expiry.
	DefaultTTL time.Duration

	// MaxTTL clamps every effective TTL. Zero means no maximum.
	MaxTTL time.Duration
}

// EffectiveTTL returns the TTL to write with, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && (ttl <= 0 || ttl > p.MaxTTL) {
		ttl = p.MaxTTL
	}
	return ttl
}

// Config is the static configuration of a Client. It is copied at
// construction; later changes have no effect.
type Config struct {
	// Scope names the cached collection, e.g. "Story". Required.
	Scope string

	// Version is an optional tag placed after the scope in every key.
	// Bumping it invalidates every entry of the scope at once.
	Version string

	// Separator joins key segments. Default "/".
	Separator string

	// KeySize bounds the full key as seen by the store server. Default 250.
	KeySize int

	// StoreNamespace is the prefix the store client adds on its own
	// ("<ns>:"). It is subtracted from KeySize.
	StoreNamespace string

	// Finder is the default data-source selector passed in Options.Finder.
	Finder string

	// FindBy is shorthand for Finder = "find_by_<FindBy>".
	FindBy string

	Policy Policy

	// Disabled bypasses the store: reads go straight to the data source
	// and writes are dropped.
	Disabled bool

	// SkipReads treats every read as a miss while still writing fetched
	// values, which refreshes the cache from the source.
	SkipReads bool

	// CoalesceMisses collapses concurrent single-item misses on the same key
	// into one data-source call.
	CoalesceMisses bool

	// BackfillConcurrency bounds concurrent store writes after a batch
	// fetch. Values below 1 mean sequential writes.
	BackfillConcurrency int

	// TolerateWriteErrors logs batch backfill write failures instead of
	// returning them. Fetched records are returned either way.
	TolerateWriteErrors bool

	// LegacyWithsJoin concatenates multi-argument wrap discriminators without
	// a separator, matching keys written by older deployments.
	LegacyWithsJoin bool
}

// Validate applies defaults and validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Scope) == "" {
		return ErrMissingScope
	}
	if c.Separator == "" {
		c.Separator = "/"
	}
	if strings.ContainsFunc(c.Separator, func(r rune) bool { return r <= ' ' }) {
		return fmt.Errorf("%w: %q", ErrInvalidSeparator, c.Separator)
	}
	if c.KeySize <= 0 {
		c.KeySize = DefaultKeySize
	}
	if c.FindBy != "" && c.Finder == "" {
		c.Finder = findByPrefix + c.FindBy
	}
	if c.MaxKeyLength() < 1 {
		return fmt.Errorf("%w: %d bytes left after store namespace %q", ErrInvalidKeySize, c.MaxKeyLength(), c.StoreNamespace)
	}
	return nil
}

// MaxKeyLength is the key budget left once the store namespace and its ":"
// are accounted for.
func (c Config) MaxKeyLength() int {
	size := c.KeySize
	if size <= 0 {
		size = DefaultKeySize
	}
	if c.StoreNamespace != "" {
		size -= len(c.StoreNamespace) + 1
	}
	return size
}
