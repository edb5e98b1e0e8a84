package redisstore

import "errors"

var (
	// ErrNoAddress indicates neither a URL nor an address was configured.
	ErrNoAddress = errors.New("redisstore: no address configured")

	// ErrUnexpectedReply indicates a reply of an unexpected type from MGET.
	ErrUnexpectedReply = errors.New("redisstore: unexpected reply")
)
