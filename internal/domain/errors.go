package domain

import "errors"

var (
	// ErrStorageUnavailable means the local database could not be opened or
	// has become unusable. Callers degrade to network-only operation.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// ErrInvalidArgument marks malformed input to an authoritative write.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNetworkTimeout marks an upstream call that hit its deadline. The
	// cache is left unchanged.
	ErrNetworkTimeout = errors.New("network timeout")

	// ErrNetwork marks any other upstream transport failure.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized means the upstream rejected the auth token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound marks a point read that matched nothing.
	ErrNotFound = errors.New("not found")
)
