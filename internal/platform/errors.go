package platform

import "errors"

// Domain errors for the platform package.
var (
	// ErrUnknownMessage is returned by Dispatch for message types it does not route.
	ErrUnknownMessage = errors.New("platform: unknown message")

	// ErrInvalidShell is returned for nil shells or shells without a UUID.
	ErrInvalidShell = errors.New("platform: invalid accessory shell")
)
