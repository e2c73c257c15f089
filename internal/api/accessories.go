package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/device"
)

// accessoryView is the JSON form of one accessory: a cached shell plus, when
// the device has been seen since startup, its live binding.
type accessoryView struct {
	UUID        string     `json:"uuid"`
	DisplayName string     `json:"display_name"`
	DeviceID    string     `json:"device_id"`
	Category    string     `json:"category"`
	Bound       bool       `json:"bound"`
	Host        string     `json:"host,omitempty"`
	Services    []string   `json:"services,omitempty"`
	BoundAt     *time.Time `json:"bound_at,omitempty"`
}

func newAccessoryView(s *accessory.Shell, b *device.Binding) accessoryView {
	v := accessoryView{
		UUID:        s.UUID,
		DisplayName: s.DisplayName,
		DeviceID:    s.DeviceID,
		Category:    accessory.CategoryName(s.Category),
	}
	if b != nil {
		boundAt := b.BoundAt
		v.Bound = true
		v.Host = b.Accessory.Device.Address()
		v.Services = b.Accessory.ServiceNames()
		v.BoundAt = &boundAt
	}
	return v
}

// bindingsByUUID indexes the current bindings by stable identifier.
func (s *Server) bindingsByUUID() map[string]*device.Binding {
	bindings := s.platform.Bindings()
	out := make(map[string]*device.Binding, len(bindings))
	for _, b := range bindings {
		out[b.StableID] = b
	}
	return out
}

// findShell returns the shell with the given UUID, or nil.
func (s *Server) findShell(uuid string) *accessory.Shell {
	for _, shell := range s.platform.Shells() {
		if shell.UUID == uuid {
			return shell
		}
	}
	return nil
}

func (s *Server) handleListAccessories(w http.ResponseWriter, _ *http.Request) {
	bound := s.bindingsByUUID()
	shells := s.platform.Shells()

	views := make([]accessoryView, 0, len(shells))
	for _, shell := range shells {
		views = append(views, newAccessoryView(shell, bound[shell.UUID]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accessories": views,
		"count":       len(views),
	})
}

func (s *Server) handleAccessoryStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.platform.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"bindings":       stats.Bindings,
		"shells":         stats.Shells,
		"unbound_shells": stats.UnboundShells,
	})
}

func (s *Server) handleGetAccessory(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	shell := s.findShell(uuid)
	if shell == nil {
		writeNotFound(w, "accessory not found")
		return
	}
	writeJSON(w, http.StatusOK, newAccessoryView(shell, s.bindingsByUUID()[uuid]))
}

func (s *Server) handleRemoveAccessory(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	shell := s.findShell(uuid)
	if shell == nil {
		writeNotFound(w, "accessory not found")
		return
	}

	if err := s.platform.RemoveAccessory(r.Context(), shell); err != nil {
		s.logger.Error("failed to remove accessory", append(shell.LogArgs(), "error", err)...)
		writeInternalError(w, "failed to remove accessory")
		return
	}

	s.logger.Info("accessory removed via API", append(shell.LogArgs(), "subject", r.Context().Value(ctxKeySubject))...)
	w.WriteHeader(http.StatusNoContent)
}
