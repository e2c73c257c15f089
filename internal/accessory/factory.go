package accessory

import (
	"fmt"

	hcaccessory "github.com/brutella/hc/accessory"
	"github.com/brutella/hc/service"

	"github.com/nerrad567/wiz-platform/internal/wiz"
)

// Logger defines the logging interface used by the Factory.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// profile is the accessory layout for one device type.
type profile struct {
	category hcaccessory.AccessoryType
	services []func() *service.Service
}

// profiles is the closed set of supported device types.
var profiles = map[wiz.DeviceType]profile{
	wiz.DeviceTypeBulb: {
		category: hcaccessory.TypeLightbulb,
		services: []func() *service.Service{
			func() *service.Service { return service.NewLightbulb().Service },
		},
	},
}

// Supported reports whether a device type has an accessory profile.
func Supported(t wiz.DeviceType) bool {
	_, ok := profiles[t]
	return ok
}

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	// Logger receives the unsupported-device warning. Optional.
	Logger Logger

	// CustomCharacteristics is copied onto every wrapper.
	CustomCharacteristics bool
}

// Factory turns device descriptors into accessory wrappers.
type Factory struct {
	logger                Logger
	customCharacteristics bool
}

// NewFactory creates a factory.
func NewFactory(opts FactoryOptions) *Factory {
	f := &Factory{
		logger:                opts.Logger,
		customCharacteristics: opts.CustomCharacteristics,
	}
	if f.logger == nil {
		f.logger = noopLogger{}
	}
	return f
}

// Create builds a wrapper for d. When existing is non-nil the wrapper reuses
// a copy of it (same UUID and display name); otherwise a fresh shell is minted and the caller must register it.
//
// Unsupported device types produce one warning and ErrUnsupported.
func (f *Factory) Create(d wiz.Descriptor, existing *Shell) (*Wrapper, error) {
	if !d.HasID() {
		return nil, ErrInvalidIdentifier
	}

	p, ok := profiles[d.DeviceType]
	if !ok {
		f.logger.Warn("found an unsupported device, ignoring", d.LogArgs()...)
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, string(d.DeviceType))
	}

	shell := existing
	fresh := shell == nil
	if fresh {
		var err error
		shell, err = NewShell(d.ID, displayName(d), p.category)
		if err != nil {
			return nil, err
		}
	} else {
		// The cached shell may be shared with readers outside the
		// controller; bind a copy.
		shell = existing.Clone()
		shell.DeviceID = d.ID
		shell.Category = p.category
	}

	services := make([]*service.Service, 0, len(p.services))
	for _, newService := range p.services {
		services = append(services, newService())
	}

	return &Wrapper{
		Shell:                 shell,
		Device:                d,
		Category:              p.category,
		Services:              services,
		Fresh:                 fresh,
		CustomCharacteristics: f.customCharacteristics,
	}, nil
}

// displayName picks the name for a freshly minted shell.
func displayName(d wiz.Descriptor) string {
	if d.Alias != "" {
		return d.Alias
	}
	return d.ID
}
