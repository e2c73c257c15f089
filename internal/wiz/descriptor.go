package wiz

import (
	"fmt"
	"net"
	"strconv"
)

// DeviceType is the device-type tag reported by the discovery bridge.
type DeviceType string

// Known device types. Only DeviceTypeBulb is currently mapped to an accessory.
const (
	DeviceTypeBulb DeviceType = "bulb"
	DeviceTypePlug DeviceType = "plug"
)

// Descriptor identifies a discovered device and where it can be reached.
type Descriptor struct {
	// ID is the device's own identifier (the bulb MAC for WiZ devices).
	ID string `json:"id"`

	// DeviceType classifies the device ("bulb", "plug", ...).
	DeviceType DeviceType `json:"deviceType"`

	// Alias is the user-assigned display name.
	Alias string `json:"alias"`

	// Host and Port locate the device on the LAN.
	Host string `json:"host"`
	Port int    `json:"port"`

	// MAC is the hardware address if the bridge reports it separately from ID.
	MAC string `json:"mac,omitempty"`

	// Online is the liveness state at the time of the snapshot.
	Online bool `json:"online"`
}

// HasID reports whether the descriptor carries a usable identifier.
func (d Descriptor) HasID() bool {
	return d.ID != ""
}

// Address returns host:port, or just the host when no port is known.
func (d Descriptor) Address() string {
	if d.Port == 0 {
		return d.Host
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// HardwareAddress returns MAC if set, falling back to ID.
func (d Descriptor) HardwareAddress() string {
	if d.MAC != "" {
		return d.MAC
	}
	return d.ID
}

// String is used in log lines: [alias] type [id].
func (d Descriptor) String() string {
	return fmt.Sprintf("[%s] %s [%s]", d.Alias, d.DeviceType, d.ID)
}

// LogArgs returns the structured key/value pairs identifying the device.
func (d Descriptor) LogArgs() []any {
	return []any{
		"device_id", d.ID,
		"alias", d.Alias,
		"device_type", string(d.DeviceType),
		"host", d.Host,
		"port", d.Port,
	}
}
