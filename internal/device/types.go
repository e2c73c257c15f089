package device

import (
	"time"

	"github.com/nerrad567/wiz-platform/internal/accessory"
)

// Binding pairs one device identifier with its live accessory.
// DeviceID never changes for the lifetime of the binding.
type Binding struct {
	DeviceID  string
	StableID  string
	Accessory *accessory.Wrapper
	BoundAt   time.Time
}

// NewBinding creates a binding for a wrapper.
func NewBinding(w *accessory.Wrapper) *Binding {
	return &Binding{
		DeviceID:  w.DeviceID(),
		StableID:  w.UUID(),
		Accessory: w,
		BoundAt:   time.Now().UTC(),
	}
}

// Stats returns registry statistics for monitoring.
type Stats struct {
	Bindings      int
	Shells        int
	UnboundShells int
}
