package secret

import "errors"

var (
	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrUnknownProvider indicates a secretref naming no registered provider.
	ErrUnknownProvider = errors.New("secret: provider is not registered")

	// ErrDuplicateProvider indicates two providers with the same name.
	ErrDuplicateProvider = errors.New("secret: provider already registered")

	// ErrInvalidRef indicates a malformed or disallowed reference.
	ErrInvalidRef = errors.New("secret: invalid reference")

	// ErrNotFound indicates a reference that resolved to nothing.
	ErrNotFound = errors.New("secret: not found")

	// ErrEmpty indicates an empty secret from a strict resolver.
	ErrEmpty = errors.New("secret: empty value")
)
