// Package gormsource implements cache.DataSource over a gorm model.
//
// FetchOne loads the first row whose identifier column equals the id.
// FetchMany loads every requested row with a single IN query. Options map
// onto the query:
//
//   - Finder "" uses the configured column (the primary key by default).
//   - Finder "find_by_<column>" matches on that column instead.
//   - Any other Finder selects a named Scope.
//   - Args become equality conditions on model columns.
//   - Include preloads relations.
//   - Page and PerPage paginate FetchMany when called directly. The cache
//     client drops them from batch fetches.
//
// Batch results are keyed by PrimaryID. Models fetched through a find_by
// finder must implement cache.LookupIdentifier for the cache client to batch
// them. Integer ids are parsed, so "007" loads the row reported as "7"; the
// client leaves such rows uncached in a batch.
package gormsource
