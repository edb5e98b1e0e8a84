package cache

import "errors"

// Sentinel errors for cache operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrNilSource  = errors.New("cache: data source is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")

	// ErrMissingScope indicates Config.Scope is empty.
	ErrMissingScope = errors.New("cache: scope is required")

	// ErrInvalidKeySize indicates KeySize leaves no room for a key once the
	// store namespace is accounted for.
	ErrInvalidKeySize = errors.New("cache: key size too small")

	// ErrInvalidSeparator indicates a separator containing whitespace.
	ErrInvalidSeparator = errors.New("cache: invalid key separator")

	// ErrDecode wraps codec failures on values read back from the store.
	ErrDecode = errors.New("cache: cannot decode stored value")

	// ErrNoLookupID indicates a find_by batch over records that do not
	// implement LookupIdentifier.
	ErrNoLookupID = errors.New("cache: find_by batch needs LookupIdentifier records")

	// ErrBackfill wraps store write failures during batch read-through.
	ErrBackfill = errors.New("cache: backfill write failed")
)
