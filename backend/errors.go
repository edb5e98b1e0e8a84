package backend

import "errors"

var (
	// ErrUnknownKind indicates an unsupported Config.Kind.
	ErrUnknownKind = errors.New("backend: unknown store kind")

	// ErrNoServers indicates a network store without servers or URL.
	ErrNoServers = errors.New("backend: no servers configured")
)
