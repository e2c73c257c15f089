// Package wiz defines the vocabulary shared with the WiZ discovery bridge:
// device descriptors and the lifecycle events that carry them.
//
// A Descriptor is an immutable snapshot of a device at the moment an event
// was emitted. Nothing in this package talks to the network; the discovery
// client decodes bridge messages into these types and the platform
// controller consumes them.
//
// # Usage
//
//	ev := wiz.Event{
//	    Kind:   wiz.EventDeviceNew,
//	    Device: wiz.Descriptor{ID: "a8bb50d2c3f4", DeviceType: wiz.DeviceTypeBulb},
//	}
//	if err := ev.Kind.Validate(); err != nil {
//	    return err
//	}
package wiz
