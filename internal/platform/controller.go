package platform

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/device"
	"github.com/nerrad567/wiz-platform/internal/discovery"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/config"
	"github.com/nerrad567/wiz-platform/internal/wiz"
)

// Host is the accessory runtime the controller registers shells with.
// *host.Runtime satisfies it.
type Host interface {
	RegisterAccessories(ctx context.Context, pluginID, platformName string, shells []*accessory.Shell) error
	UnregisterAccessories(ctx context.Context, pluginID, platformName string, shells []*accessory.Shell) error
}

// Discovery starts and stops the discovery collaborator.
// *discovery.Client satisfies it.
type Discovery interface {
	StartDiscovery(opts discovery.Options) error
	StopDiscovery() error
}

// LivenessRecorder receives discovery transitions and binding counts.
// *influxdb.Client satisfies it.
type LivenessRecorder interface {
	RecordLiveness(d wiz.Descriptor, kind wiz.EventKind)
	RecordAccessoryCount(bindings, shells int)
}

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Controller. Host and Discovery are required.
type Options struct {
	Host      Host
	Discovery Discovery

	// DiscoveryOptions are passed to Discovery.StartDiscovery.
	DiscoveryOptions discovery.Options

	// CustomCharacteristics is copied onto every accessory wrapper.
	CustomCharacteristics bool

	// PluginID and PlatformName identify the platform to the host.
	// Default: config.PluginID and config.PlatformName.
	PluginID     string
	PlatformName string

	// Liveness is optional.
	Liveness LivenessRecorder

	Logger  Logger
	Version string
}

// Controller owns the device registry and the routing of discovery and host
// lifecycle messages. Dispatch runs one message at a time.
type Controller struct {
	registry *device.Registry
	factory  *accessory.Factory

	host      Host
	discovery Discovery
	liveness  LivenessRecorder
	logger    Logger

	discoveryOpts discovery.Options
	pluginID      string
	platformName  string

	mu sync.Mutex
}

// New creates a controller and logs the startup banner.
func New(opts Options) (*Controller, error) {
	if opts.Host == nil {
		return nil, errors.New("platform: host is required")
	}
	if opts.Discovery == nil {
		return nil, errors.New("platform: discovery is required")
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.PluginID == "" {
		opts.PluginID = config.PluginID
	}
	if opts.PlatformName == "" {
		opts.PlatformName = config.PlatformName
	}
	if opts.DiscoveryOptions.FilterCallback == nil {
		opts.DiscoveryOptions.FilterCallback = discovery.DefaultFilter
	}

	registry := device.NewRegistry()
	registry.SetLogger(opts.Logger)

	c := &Controller{
		registry: registry,
		factory: accessory.NewFactory(accessory.FactoryOptions{
			Logger:                opts.Logger,
			CustomCharacteristics: opts.CustomCharacteristics,
		}),
		host:          opts.Host,
		discovery:     opts.Discovery,
		liveness:      opts.Liveness,
		logger:        opts.Logger,
		discoveryOpts: opts.DiscoveryOptions,
		pluginID:      opts.PluginID,
		platformName:  opts.PlatformName,
	}

	c.logger.Info("platform initializing",
		"platform", c.platformName,
		"plugin", c.pluginID,
		"version", opts.Version,
		"go_version", runtime.Version(),
	)
	c.logger.Debug("effective discovery configuration",
		"broadcast", c.discoveryOpts.Broadcast,
		"discovery_interval_ms", c.discoveryOpts.DiscoveryInterval,
		"device_types", c.discoveryOpts.DeviceTypes,
		"devices", len(c.discoveryOpts.Devices),
		"mac_addresses", c.discoveryOpts.MACAddresses,
		"exclude_mac_addresses", c.discoveryOpts.ExcludeMACAddresses,
		"send_timeout_ms", c.discoveryOpts.DefaultSendOptions.Timeout,
		"custom_characteristics", opts.CustomCharacteristics,
	)

	return c, nil
}

// Run dispatches discovery events until ctx is cancelled or events is closed.
func (c *Controller) Run(ctx context.Context, events <-chan wiz.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			_ = c.Dispatch(ctx, DeviceEvent{Event: ev}) //nolint:errcheck // device events are contained
		}
	}
}

// Dispatch routes one message. Errors from discovery events are contained
// and logged; errors from host lifecycle messages are returned.
func (c *Controller) Dispatch(ctx context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch m := msg.(type) {
	case DeviceEvent:
		c.handleDeviceEvent(ctx, m.Event)
		return nil
	case ConfigureAccessoryMsg:
		return c.configureAccessory(m.Shell)
	case DidFinishLaunchingMsg:
		return c.didFinishLaunching()
	case ShutdownMsg:
		return c.shutdown()
	case RemoveAccessoryMsg:
		return c.removeAccessory(ctx, m.Shell)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
	}
}

// ConfigureAccessory indexes a shell replayed from the host cache.
func (c *Controller) ConfigureAccessory(shell *accessory.Shell) error {
	return c.Dispatch(context.Background(), ConfigureAccessoryMsg{Shell: shell})
}

// DidFinishLaunching starts discovery.
func (c *Controller) DidFinishLaunching() error {
	return c.Dispatch(context.Background(), DidFinishLaunchingMsg{})
}

// Shutdown stops discovery.
func (c *Controller) Shutdown() error {
	return c.Dispatch(context.Background(), ShutdownMsg{})
}

// RemoveAccessory forgets a shell and unregisters it from the host.
func (c *Controller) RemoveAccessory(ctx context.Context, shell *accessory.Shell) error {
	return c.Dispatch(ctx, RemoveAccessoryMsg{Shell: shell})
}

// Bindings returns the current bindings in the order they were created.
func (c *Controller) Bindings() []*device.Binding {
	return c.registry.All()
}

// Shells returns every shell the controller knows, bound or not, by UUID.
func (c *Controller) Shells() []*accessory.Shell {
	return c.registry.Shells()
}

// Stats returns registry statistics.
func (c *Controller) Stats() device.Stats {
	return c.registry.GetStats()
}

func (c *Controller) configureAccessory(shell *accessory.Shell) error {
	if shell == nil || shell.UUID == "" {
		return ErrInvalidShell
	}

	c.logger.Info("configuring cached accessory", shell.LogArgs()...)
	if err := c.registry.IndexShell(shell); err != nil {
		return fmt.Errorf("indexing cached accessory: %w", err)
	}
	return nil
}

func (c *Controller) didFinishLaunching() error {
	c.logger.Debug("didFinishLaunching")
	if err := c.discovery.StartDiscovery(c.discoveryOpts); err != nil {
		c.logger.Error("failed to start discovery", "error", err)
		return fmt.Errorf("starting discovery: %w", err)
	}
	return nil
}

func (c *Controller) shutdown() error {
	c.logger.Debug("shutdown")
	err := c.discovery.StopDiscovery()
	if errors.Is(err, discovery.ErrNotStarted) {
		return nil
	}
	if err != nil {
		c.logger.Error("failed to stop discovery", "error", err)
		return fmt.Errorf("stopping discovery: %w", err)
	}
	return nil
}

func (c *Controller) removeAccessory(ctx context.Context, shell *accessory.Shell) error {
	if shell == nil || shell.UUID == "" {
		return ErrInvalidShell
	}

	c.logger.Info("removing accessory", shell.LogArgs()...)

	// The binding is only dropped once the host has let go of the shell, so a
	// failed unregister leaves both sides in agreement.
	if err := c.host.UnregisterAccessories(ctx, c.pluginID, c.platformName, []*accessory.Shell{shell}); err != nil {
		c.logger.Error("failed to unregister accessory", append(shell.LogArgs(), "error", err)...)
		return fmt.Errorf("unregistering accessory: %w", err)
	}

	if _, err := c.registry.Forget(shell); err != nil && !errors.Is(err, device.ErrBindingNotFound) {
		return fmt.Errorf("forgetting accessory: %w", err)
	}

	c.recordCounts()
	return nil
}

func (c *Controller) recordCounts() {
	if c.liveness == nil {
		return
	}
	stats := c.registry.GetStats()
	c.liveness.RecordAccessoryCount(stats.Bindings, stats.Shells)
}
