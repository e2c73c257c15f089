package accessory

import "errors"

// Domain errors for the accessory package.
var (
	// ErrInvalidIdentifier is returned when a device identifier is empty.
	ErrInvalidIdentifier = errors.New("accessory: invalid device identifier")

	// ErrUnsupported is returned by the factory for device types that have no
	// accessory profile. It is a classification outcome, not a failure.
	ErrUnsupported = errors.New("accessory: unsupported device type")
)
