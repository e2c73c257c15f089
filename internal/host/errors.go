package host

import "errors"

// Domain errors for the host package.
var (
	// ErrAccessoryNotFound is returned when a UUID has no cached shell.
	ErrAccessoryNotFound = errors.New("host: accessory not found")

	// ErrAlreadyRegistered is returned when registering a UUID that is
	// already cached.
	ErrAlreadyRegistered = errors.New("host: accessory already registered")

	// ErrForeignPlatform is returned for requests naming another plugin or platform.
	ErrForeignPlatform = errors.New("host: request for another platform")

	// ErrInvalidShell is returned for nil shells or shells without a UUID.
	ErrInvalidShell = errors.New("host: invalid accessory shell")
)
