// Package cache provides a read-through batch cache client.
//
// A Client sits between callers, an external key-value Store (memcached,
// Redis, or the in-process MemoryStore) and a DataSource that can resolve
// identifiers to records one at a time or in bulk. It derives deterministic,
// length-bounded keys from a scope, an optional version tag, the identifier
// and any pass-through query arguments, and it caches negative lookups with
// an absent-sentinel so permanently missing records do not hit the source on
// every read.
//
// The batch path (GetBatch, GetMany) issues one bulk store read, one bulk
// source fetch for exactly the missing identifiers, and writes every fetched
// record back before returning results keyed by identifier or in request
// order.
//
// Records carrying a last-modified timestamp get versioned cache identities
// ("42-20240105103000"), so any mutation moves the record to a new key
// without explicit invalidation.
package cache
