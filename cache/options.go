package cache

import (
	"maps"
	"slices"
	"time"
)

// Options carries per-call directives plus pass-through arguments.
//
// The named fields steer the store write or the data source and never affect
// key identity. Args are handed to the data source untouched and, when
// non-empty, are serialized canonically into the key so calls that differ
// only in an argument value address different entries.
type Options struct {
	// TTL overrides Policy.DefaultTTL for writes made by this call.
	TTL time.Duration

	// Namespace is prepended to the key as "<namespace>:".
	Namespace string

	// Finder selects a named lookup on the data source. Empty means the
	// client's configured default.
	Finder string

	// Page and PerPage are pagination hints for the data source. Batch
	// fetches do not pass them on.
	Page    int
	PerPage int

	// Include names related records the data source should load alongside.
	Include []string

	// Args are opaque data-source arguments that participate in key derivation.
	Args map[string]any
}

// ReservedArgs are argument names that configure caching rather than the
// lookup. They are stripped from Args before key derivation and before the
// data source sees them.
var ReservedArgs = []string{
	"ttl",
	"version",
	"pages",
	"page",
	"per_page",
	"finder",
	"cache_id",
	"find_by",
	"key_size",
	"namespace",
	"perform_caching",
}

// FilteredArgs returns Args without reserved names, or nil when nothing is left.
func (o Options) FilteredArgs() map[string]any {
	if len(o.Args) == 0 {
		return nil
	}
	out := maps.Clone(o.Args)
	maps.DeleteFunc(out, func(k string, _ any) bool {
		return slices.Contains(ReservedArgs, k)
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// Filtered returns a copy of o whose Args have reserved names removed.
func (o Options) Filtered() Options {
	o.Args = o.FilteredArgs()
	return o
}
