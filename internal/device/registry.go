package device

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/wiz-platform/internal/accessory"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
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

// Registry holds the device-to-accessory bindings and the index of
// accessory shells by stable identifier. Both maps are only changed
// through the methods below so they cannot drift apart.
//
// All public methods are thread-safe.
type Registry struct {
	bindings map[string]*Binding         // by device ID
	order    []string                    // device IDs in insertion order
	shells   map[string]*accessory.Shell // by stable ID
	mu       sync.RWMutex
	logger   Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]*Binding),
		shells:   make(map[string]*accessory.Shell),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Get returns the binding for a device identifier.
func (r *Registry) Get(deviceID string) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[deviceID]
	return b, ok
}

// Put stores a binding and indexes its shell by stable identifier.
// Returns ErrDuplicateBinding if deviceID is already bound.
func (r *Registry) Put(deviceID string, b *Binding) error {
	if b == nil || b.Accessory == nil || b.Accessory.Shell == nil {
		return fmt.Errorf("%w: missing accessory", ErrInvalidBinding)
	}
	if deviceID == "" || b.DeviceID != deviceID {
		return fmt.Errorf("%w: device id %q does not match key %q", ErrInvalidBinding, b.DeviceID, deviceID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[deviceID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBinding, deviceID)
	}

	r.bindings[deviceID] = b
	r.order = append(r.order, deviceID)
	r.shells[b.StableID] = b.Accessory.Shell

	r.logger.Debug("binding stored", "device_id", deviceID, "uuid", b.StableID)
	return nil
}

// Remove deletes the binding for a device identifier together with the
// index entry for its shell, and returns the removed binding.
func (r *Registry) Remove(deviceID string) (*Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[deviceID]
	if !ok {
		return nil, false
	}

	delete(r.bindings, deviceID)
	delete(r.shells, b.StableID)
	r.dropOrder(deviceID)

	r.logger.Debug("binding removed", "device_id", deviceID, "uuid", b.StableID)
	return b, true
}

// Forget removes everything the registry knows about a shell: the binding
// for the device the shell was last bound to and the shell's index entry.
// It returns the removed binding, if any, and ErrBindingNotFound when
// neither existed.
func (r *Registry) Forget(s *accessory.Shell) (*Binding, error) {
	if s == nil || s.UUID == "" {
		return nil, ErrInvalidShell
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, indexed := r.shells[s.UUID]
	delete(r.shells, s.UUID)

	var removed *Binding
	if b, ok := r.bindings[s.DeviceID]; ok && s.DeviceID != "" {
		removed = b
		delete(r.bindings, s.DeviceID)
		delete(r.shells, b.StableID)
		r.dropOrder(s.DeviceID)
	}

	if removed == nil && !indexed {
		return nil, fmt.Errorf("%w: %s", ErrBindingNotFound, s.UUID)
	}

	r.logger.Debug("shell forgotten", append(s.LogArgs(), "was_bound", removed != nil)...)
	return removed, nil
}

func (r *Registry) dropOrder(deviceID string) {
	for i, id := range r.order {
		if id == deviceID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// All returns the bindings in insertion order. The slice is a snapshot and
// does not reflect later mutations.
func (r *Registry) All() []*Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Binding, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.bindings[id])
	}
	return out
}

// IndexShell records a shell replayed from the host cache. Replaying the
// same UUID again replaces the earlier entry.
func (r *Registry) IndexShell(s *accessory.Shell) error {
	if s == nil || s.UUID == "" {
		return ErrInvalidShell
	}

	r.mu.Lock()
	r.shells[s.UUID] = s
	r.mu.Unlock()
	return nil
}

// Shell returns the shell indexed under a stable identifier.
func (r *Registry) Shell(stableID string) (*accessory.Shell, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shells[stableID]
	return s, ok
}

// DropShell removes a shell from the index. Bindings are not touched;
// use Remove for bound devices.
func (r *Registry) DropShell(stableID string) (*accessory.Shell, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shells[stableID]
	if ok {
		delete(r.shells, stableID)
	}
	return s, ok
}

// Shells returns the indexed shells sorted by UUID.
func (r *Registry) Shells() []*accessory.Shell {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*accessory.Shell, 0, len(r.shells))
	for _, s := range r.shells {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	return out
}

// Count returns the number of bindings.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bound := make(map[string]bool, len(r.bindings))
	for _, b := range r.bindings {
		bound[b.StableID] = true
	}

	stats := Stats{
		Bindings: len(r.bindings),
		Shells:   len(r.shells),
	}
	for id := range r.shells {
		if !bound[id] {
			stats.UnboundShells++
		}
	}
	return stats
}
