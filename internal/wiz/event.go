package wiz

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownEvent is returned when an event kind is not recognised.
var ErrUnknownEvent = errors.New("wiz: unknown event kind")

// EventKind is the lifecycle transition carried by an Event.
type EventKind string

const (
	// EventDeviceNew is emitted the first time the bridge sees a device.
	EventDeviceNew EventKind = "device-new"

	// EventDeviceOnline is emitted each time a known device answers discovery.
	EventDeviceOnline EventKind = "device-online"

	// EventDeviceOffline is emitted when a device stops answering.
	EventDeviceOffline EventKind = "device-offline"
)

// AllEventKinds lists every recognised kind.
var AllEventKinds = []EventKind{EventDeviceNew, EventDeviceOnline, EventDeviceOffline}

// Validate returns ErrUnknownEvent for unrecognised kinds.
func (k EventKind) Validate() error {
	for _, known := range AllEventKinds {
		if k == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, string(k))
}

// Event is a single device lifecycle notification.
type Event struct {
	Kind      EventKind  `json:"event"`
	Device    Descriptor `json:"device"`
	Timestamp time.Time  `json:"timestamp"`
}
