package platform

import (
	"context"
	"errors"

	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/device"
	"github.com/nerrad567/wiz-platform/internal/wiz"
)

// handleDeviceEvent routes one discovery event. It never fails: problems are
// logged and the event is dropped.
func (c *Controller) handleDeviceEvent(ctx context.Context, ev wiz.Event) {
	d := ev.Device
	if !d.HasID() {
		c.logger.Error("missing device id", "event", string(ev.Kind), "host", d.Host, "port", d.Port)
		return
	}

	if c.liveness != nil {
		c.liveness.RecordLiveness(d, ev.Kind)
	}

	switch ev.Kind {
	case wiz.EventDeviceNew:
		c.logger.Info("new device online", d.LogArgs()...)
		c.addAccessory(ctx, d)
	case wiz.EventDeviceOnline:
		c.logger.Debug("device online", d.LogArgs()...)
		c.addAccessory(ctx, d)
	case wiz.EventDeviceOffline:
		c.deviceOffline(d)
	default:
		c.logger.Error("unknown discovery event", append(d.LogArgs(), "event", string(ev.Kind))...)
	}
}

// addAccessory binds d to an accessory unless it is already bound.
func (c *Controller) addAccessory(ctx context.Context, d wiz.Descriptor) {
	if _, bound := c.registry.Get(d.ID); bound {
		return
	}

	stableID, err := accessory.DeriveStableID(d.ID)
	if err != nil {
		c.logger.Error("cannot derive accessory id", append(d.LogArgs(), "error", err)...)
		return
	}
	existing, _ := c.registry.Shell(stableID)

	c.logger.Info("adding accessory", append(d.LogArgs(), "uuid", stableID, "cached", existing != nil)...)

	w, err := c.factory.Create(d, existing)
	if errors.Is(err, accessory.ErrUnsupported) {
		// The factory has already warned.
		return
	}
	if err != nil {
		c.logger.Error("failed to create accessory", append(d.LogArgs(), "error", err)...)
		return
	}

	if err := c.registry.Put(d.ID, device.NewBinding(w)); err != nil {
		c.logger.Error("failed to bind accessory", append(d.LogArgs(), "error", err)...)
		return
	}

	c.logger.Debug("accessory bound",
		append(d.LogArgs(),
			"uuid", w.UUID(),
			"category", accessory.CategoryName(w.Category),
			"services", w.ServiceNames(),
		)...,
	)

	if w.Fresh {
		err := c.host.RegisterAccessories(ctx, c.pluginID, c.platformName, []*accessory.Shell{w.Shell})
		if err != nil {
			c.logger.Error("failed to register accessory", append(w.Shell.LogArgs(), "error", err)...)
		}
	}

	c.recordCounts()
}

// deviceOffline is diagnostic only.
func (c *Controller) deviceOffline(d wiz.Descriptor) {
	b, bound := c.registry.Get(d.ID)
	if !bound {
		return
	}
	c.logger.Debug("device offline", append(d.LogArgs(), "display_name", b.Accessory.Shell.DisplayName)...)
}
