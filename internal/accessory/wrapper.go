package accessory

import (
	hcaccessory "github.com/brutella/hc/accessory"
	"github.com/brutella/hc/service"

	"github.com/nerrad567/wiz-platform/internal/wiz"
)

// Wrapper is a live accessory: a device descriptor bound to a shell, a
// category and the services exposed for it.
type Wrapper struct {
	// Shell is the host-side record. When Fresh is true it has not been
	// registered with the host yet.
	Shell *Shell

	// Device is the descriptor the wrapper was built from.
	Device wiz.Descriptor

	Category hcaccessory.AccessoryType
	Services []*service.Service

	// Fresh reports whether Shell was minted by the factory rather than
	// reused from the host cache.
	Fresh bool

	// CustomCharacteristics mirrors the platform setting of the same name.
	CustomCharacteristics bool
}

// DeviceID returns the identifier of the device the wrapper is bound to.
func (w *Wrapper) DeviceID() string {
	return w.Shell.DeviceID
}

// UUID returns the stable identifier of the wrapped shell.
func (w *Wrapper) UUID() string {
	return w.Shell.UUID
}

// ServiceNames returns the symbolic names of the exposed services.
func (w *Wrapper) ServiceNames() []string {
	names := make([]string, 0, len(w.Services))
	for _, s := range w.Services {
		names = append(names, ServiceName(s.Type))
	}
	return names
}
