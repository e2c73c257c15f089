package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDuplicateBinding) {
//	    // a binding already exists for this device
//	}
var (
	// ErrDuplicateBinding is returned when putting a binding for a device
	// identifier that is already bound.
	ErrDuplicateBinding = errors.New("device: duplicate binding")

	// ErrInvalidBinding is returned when a binding is nil, has no accessory,
	// or names a different device than the key it is stored under.
	ErrInvalidBinding = errors.New("device: invalid binding")

	// ErrBindingNotFound is returned when neither a binding nor an indexed
	// shell exists for the requested identifier.
	ErrBindingNotFound = errors.New("device: binding not found")

	// ErrInvalidShell is returned when indexing a shell without a UUID.
	ErrInvalidShell = errors.New("device: invalid shell")
)
