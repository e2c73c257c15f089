package host

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/mqtt"
)

// Lifecycle event types published after the store changes.
const (
	EventAccessoryRegistered   = "accessory_registered"
	EventAccessoryUnregistered = "accessory_unregistered"
)

// Publisher announces accessory lifecycle events. *mqtt.Client satisfies it.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// Logger defines the logging interface used by the Runtime.
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

// AccessoryEvent is the payload published for lifecycle events.
type AccessoryEvent struct {
	Type         string    `json:"type"`
	PluginID     string    `json:"plugin_id"`
	PlatformName string    `json:"platform_name"`
	UUID         string    `json:"uuid"`
	DisplayName  string    `json:"display_name"`
	DeviceID     string    `json:"device_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// RuntimeOptions configures a Runtime.
type RuntimeOptions struct {
	PluginID     string
	PlatformName string

	// Publisher is optional.
	Publisher Publisher

	Logger Logger
}

// Runtime is the host side of the platform contract: it replays cached
// shells and applies register/unregister requests to the store.
type Runtime struct {
	store        Store
	pluginID     string
	platformName string
	publisher    Publisher
	logger       Logger
}

// NewRuntime creates a runtime for one plugin/platform pair.
func NewRuntime(store Store, opts RuntimeOptions) *Runtime {
	r := &Runtime{
		store:        store,
		pluginID:     opts.PluginID,
		platformName: opts.PlatformName,
		publisher:    opts.Publisher,
		logger:       opts.Logger,
	}
	if r.logger == nil {
		r.logger = noopLogger{}
	}
	return r
}

// Replay calls fn once for every cached shell and returns how many there were.
func (r *Runtime) Replay(ctx context.Context, fn func(*accessory.Shell)) (int, error) {
	shells, err := r.store.List(ctx, r.pluginID, r.platformName)
	if err != nil {
		return 0, fmt.Errorf("replaying accessories: %w", err)
	}
	for _, s := range shells {
		fn(s)
	}
	return len(shells), nil
}

// Accessories returns the cached shells without replaying them.
func (r *Runtime) Accessories(ctx context.Context) ([]*accessory.Shell, error) {
	return r.store.List(ctx, r.pluginID, r.platformName)
}

// Accessory returns one cached shell.
func (r *Runtime) Accessory(ctx context.Context, uuid string) (*accessory.Shell, error) {
	return r.store.Get(ctx, uuid)
}

// RegisterAccessories persists new shells. Registering a UUID that is
// already cached fails with ErrAlreadyRegistered and stores nothing.
func (r *Runtime) RegisterAccessories(ctx context.Context, pluginID, platformName string, shells []*accessory.Shell) error {
	if err := r.checkRequest(pluginID, platformName, shells); err != nil {
		return err
	}
	if err := r.store.Insert(ctx, pluginID, platformName, shells); err != nil {
		return fmt.Errorf("registering accessories: %w", err)
	}

	for _, s := range shells {
		r.logger.Info("registered accessory", s.LogArgs()...)
		r.announce(EventAccessoryRegistered, s)
	}
	return nil
}

// UnregisterAccessories deletes cached shells. An unknown UUID fails with
// ErrAccessoryNotFound and deletes nothing.
func (r *Runtime) UnregisterAccessories(ctx context.Context, pluginID, platformName string, shells []*accessory.Shell) error {
	if err := r.checkRequest(pluginID, platformName, shells); err != nil {
		return err
	}

	uuids := make([]string, 0, len(shells))
	for _, s := range shells {
		uuids = append(uuids, s.UUID)
	}
	if err := r.store.Delete(ctx, uuids); err != nil {
		return fmt.Errorf("unregistering accessories: %w", err)
	}

	for _, s := range shells {
		r.logger.Info("unregistered accessory", s.LogArgs()...)
		r.announce(EventAccessoryUnregistered, s)
	}
	return nil
}

func (r *Runtime) checkRequest(pluginID, platformName string, shells []*accessory.Shell) error {
	if pluginID != r.pluginID || platformName != r.platformName {
		return fmt.Errorf("%w: %s/%s", ErrForeignPlatform, pluginID, platformName)
	}
	seen := make(map[string]bool, len(shells))
	for _, s := range shells {
		if s == nil || s.UUID == "" {
			return ErrInvalidShell
		}
		if seen[s.UUID] {
			return fmt.Errorf("%w: %s listed twice", ErrInvalidShell, s.UUID)
		}
		seen[s.UUID] = true
	}
	return nil
}

// announce publishes a lifecycle event. Failures are only logged.
func (r *Runtime) announce(eventType string, s *accessory.Shell) {
	if r.publisher == nil {
		return
	}
	err := r.publisher.PublishJSON(mqtt.Topics{}.Event(eventType), AccessoryEvent{
		Type:         eventType,
		PluginID:     r.pluginID,
		PlatformName: r.platformName,
		UUID:         s.UUID,
		DisplayName:  s.DisplayName,
		DeviceID:     s.DeviceID,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		r.logger.Warn("failed to publish accessory event", append(s.LogArgs(), "event", eventType, "error", err)...)
	}
}
