package cache

import (
	"bytes"
	"context"
	"strings"
	"time"
)

// DefaultKeySize is the default upper bound for a full key, matching the
// memcached protocol limit.
const DefaultKeySize = 250

// Directives configure a single store write.
type Directives struct {
	// TTL is the entry lifetime. Zero means the store default (usually no expiry).
	TTL time.Duration
}

// Store is the external key-value cache the client reads and writes.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Absence: Read and ReadMany report a missing key as not present; a key
//     holding the absent-sentinel is present.
//   - Errors: unavailability is returned as an error, never as a miss.
//   - Delete is idempotent; deleting a missing key returns nil.
//   - ReadMany is a single round trip and omits keys that are not present.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	ReadMany(ctx context.Context, keys []string) (map[string][]byte, error)
	Write(ctx context.Context, key string, value []byte, d Directives) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// absentSentinel marks a deliberately cached negative lookup. The leading NUL
// byte keeps it out of reach of any JSON encoding.
var absentSentinel = []byte("\x00cachefu:nil")

// AbsentSentinel returns a copy of the stored marker for negative lookups.
func AbsentSentinel() []byte {
	return bytes.Clone(absentSentinel)
}

// IsAbsent reports whether a stored value is the absent-sentinel.
func IsAbsent(value []byte) bool {
	return bytes.Equal(value, absentSentinel)
}

// ValidateKey checks a key against the store-safe character set and maxLen.
// Keys must be non-empty and free of whitespace and control characters.
func ValidateKey(key string, maxLen int) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if maxLen > 0 && len(key) > maxLen {
		return ErrKeyTooLong
	}
	if !isPrintableKey(key) {
		return ErrInvalidKey
	}
	return nil
}

func isPrintableKey(key string) bool {
	for i := 0; i < len(key); i++ {
		if c := key[i]; c <= ' ' || c == 0x7f {
			return false
		}
	}
	return true
}
