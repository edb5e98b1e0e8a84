package cache

import "time"

// NewRecordIdentity is the cache identity of a record that has not been persisted.
const NewRecordIdentity = "new"

// timestampLayout renders a UTC timestamp as a 14-digit integer.
const timestampLayout = "20060102150405"

// Record is a value resolved by a DataSource.
type Record interface {
	// PrimaryID returns the stable identifier the record is fetched by.
	PrimaryID() string
}

// Timestamped is implemented by records that carry a last-modified time.
// A zero time is treated as absent.
type Timestamped interface {
	LastModified() time.Time
}

// Persistable is implemented by records that can exist before being saved.
type Persistable interface {
	Persisted() bool
}

// CacheIdentifier lets a record supply its own cache identity.
type CacheIdentifier interface {
	CacheIdentity() string
}

// Identity returns the cache identity for a record's attributes:
// "new" when not persisted, "<id>-<YYYYMMDDhhmmss>" when modifiedAt is
// set, otherwise id.
func Identity(id string, modifiedAt time.Time, persisted bool) string {
	switch {
	case !persisted:
		return NewRecordIdentity
	case !modifiedAt.IsZero():
		return id + "-" + modifiedAt.UTC().Format(timestampLayout)
	default:
		return id
	}
}

// IdentityOf returns rec's cache identity. Any update to a timestamped record
// yields a new identity, and therefore a new key.
func IdentityOf(rec Record) string {
	if ci, ok := rec.(CacheIdentifier); ok {
		return ci.CacheIdentity()
	}
	persisted := true
	if p, ok := rec.(Persistable); ok {
		persisted = p.Persisted()
	}
	var modified time.Time
	if ts, ok := rec.(Timestamped); ok {
		modified = ts.LastModified()
	}
	return Identity(rec.PrimaryID(), modified, persisted)
}
