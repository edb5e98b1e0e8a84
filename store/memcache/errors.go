package memcache

import "errors"

var (
	// ErrNoServers indicates an empty server list.
	ErrNoServers = errors.New("memcache: no servers configured")

	// ErrValueTooLarge indicates a value above the configured item size.
	ErrValueTooLarge = errors.New("memcache: value too large")
)
