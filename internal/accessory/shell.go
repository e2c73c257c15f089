package accessory

import (
	"time"

	hcaccessory "github.com/brutella/hc/accessory"
)

// Shell is the accessory record the host runtime persists between restarts.
// It is keyed by UUID (the stable identifier) and remembers the device it
// was last bound to.
type Shell struct {
	UUID        string                    `json:"uuid"`
	DisplayName string                    `json:"display_name"`
	DeviceID    string                    `json:"device_id"`
	Category    hcaccessory.AccessoryType `json:"category"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// NewShell mints a shell for a device. The UUID is derived from deviceID.
func NewShell(deviceID, displayName string, category hcaccessory.AccessoryType) (*Shell, error) {
	uuid, err := DeriveStableID(deviceID)
	if err != nil {
		return nil, err
	}
	return &Shell{
		UUID:        uuid,
		DisplayName: displayName,
		DeviceID:    deviceID,
		Category:    category,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Clone returns an independent copy of the shell.
func (s *Shell) Clone() *Shell {
	if s == nil {
		return nil
	}
	cpy := *s
	return &cpy
}

// LogArgs returns the structured key/value pairs identifying the shell.
func (s *Shell) LogArgs() []any {
	return []any{
		"display_name", s.DisplayName,
		"device_id", s.DeviceID,
		"uuid", s.UUID,
	}
}
