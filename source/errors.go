package source

import "errors"

var (
	// ErrUnsupported is returned when a Funcs field needed for a call is nil.
	ErrUnsupported = errors.New("source: operation not supported")

	// ErrUnknownFinder is returned when Options.Finder names no registered source.
	ErrUnknownFinder = errors.New("source: unknown finder")

	// ErrDuplicateFinder is returned when a finder name is registered twice.
	ErrDuplicateFinder = errors.New("source: finder already registered")

	// ErrInvalidFinder is returned for an empty finder name or nil source.
	ErrInvalidFinder = errors.New("source: invalid finder")

	// ErrInvalidQuery is returned when options name columns or relations the
	// data source does not have.
	ErrInvalidQuery = errors.New("source: invalid query")
)
