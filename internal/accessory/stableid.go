package accessory

import (
	"github.com/google/uuid"
)

// Namespace is the UUID namespace stable accessory identifiers are derived in.
// Changing it orphans every cached accessory.
var Namespace = uuid.MustParse("5d1a4c8e-7b0f-4f6a-9e3d-2c61b7a04f19")

// DeriveStableID returns the stable accessory identifier for a device
// identifier. The derivation is a name-based SHA-1 UUID, so it is
// deterministic and one-way.
func DeriveStableID(deviceID string) (string, error) {
	if deviceID == "" {
		return "", ErrInvalidIdentifier
	}
	return uuid.NewSHA1(Namespace, []byte(deviceID)).String(), nil
}

// MustDeriveStableID is DeriveStableID for identifiers already known to be valid.
// It panics on an empty identifier.
func MustDeriveStableID(deviceID string) string {
	id, err := DeriveStableID(deviceID)
	if err != nil {
		panic(err)
	}
	return id
}
