package discovery

import (
	"path"
	"strings"

	"github.com/nerrad567/wiz-platform/internal/infrastructure/config"
	"github.com/nerrad567/wiz-platform/internal/wiz"
)

// Options is the discovery configuration sent to the bridge and applied
// locally by Accept.
type Options struct {
	Broadcast string `json:"broadcast,omitempty"`

	// DiscoveryInterval is in milliseconds.
	DiscoveryInterval int `json:"discoveryInterval"`

	// DeviceTypes restricts discovery to these types; empty means all.
	DeviceTypes []wiz.DeviceType `json:"deviceTypes,omitempty"`

	// Devices are polled directly in addition to broadcast discovery.
	Devices []StaticDevice `json:"devices,omitempty"`

	// MACAddresses and ExcludeMACAddresses are glob patterns (path.Match
	// syntax) compared case-insensitively with separators stripped.
	MACAddresses        []string `json:"macAddresses,omitempty"`
	ExcludeMACAddresses []string `json:"excludeMacAddresses,omitempty"`

	DeviceOptions      DeviceOptions `json:"deviceOptions"`
	DefaultSendOptions SendOptions   `json:"defaultSendOptions"`

	// FilterCallback is applied last. DefaultFilter is used when nil.
	FilterCallback func(wiz.Descriptor) bool `json:"-"`
}

// StaticDevice is a device address polled without broadcast.
type StaticDevice struct {
	Host string `json:"host"`
	Port int    `json:"port,omitempty"`
}

// DeviceOptions apply to every discovered device.
type DeviceOptions struct {
	DefaultSendOptions SendOptions `json:"defaultSendOptions"`
	InUseThreshold     float64     `json:"inUseThreshold,omitempty"`
}

// SendOptions are per-request transport settings. Timeout is in milliseconds.
type SendOptions struct {
	Timeout int `json:"timeout"`
}

// DefaultFilter accepts only descriptors that carry an identifier.
func DefaultFilter(d wiz.Descriptor) bool {
	return d.HasID()
}

// OptionsFromConfig builds Options from a defaulted configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	dis := cfg.DiscoveryOptions

	opts := Options{
		Broadcast:           dis.Broadcast,
		DiscoveryInterval:   dis.DiscoveryInterval,
		MACAddresses:        append([]string(nil), dis.MACAddresses...),
		ExcludeMACAddresses: append([]string(nil), dis.ExcludeMACAddresses...),
		DeviceOptions: DeviceOptions{
			InUseThreshold: dis.DeviceOptions.InUseThreshold,
		},
		DefaultSendOptions: SendOptions{Timeout: cfg.DefaultSendOptions.Timeout},
		FilterCallback:     DefaultFilter,
	}
	if dis.DeviceOptions.DefaultSendOptions != nil {
		opts.DeviceOptions.DefaultSendOptions.Timeout = dis.DeviceOptions.DefaultSendOptions.Timeout
	}
	for _, t := range dis.DeviceTypes {
		opts.DeviceTypes = append(opts.DeviceTypes, wiz.DeviceType(t))
	}
	for _, d := range dis.Devices {
		opts.Devices = append(opts.Devices, StaticDevice{Host: d.Host, Port: d.Port})
	}
	return opts
}

// Accept reports whether a descriptor passes the device-type filter, the MAC
// allow list, the MAC deny list and finally FilterCallback, in that order.
func (o Options) Accept(d wiz.Descriptor) bool {
	if len(o.DeviceTypes) > 0 && !containsType(o.DeviceTypes, d.DeviceType) {
		return false
	}

	mac := normalizeMAC(d.HardwareAddress())
	if len(o.MACAddresses) > 0 && !matchAny(o.MACAddresses, mac) {
		return false
	}
	if matchAny(o.ExcludeMACAddresses, mac) {
		return false
	}

	filter := o.FilterCallback
	if filter == nil {
		filter = DefaultFilter
	}
	return filter(d)
}

func containsType(types []wiz.DeviceType, t wiz.DeviceType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// matchAny reports whether mac matches any pattern. Malformed patterns never
// match; config validation rejects them earlier.
func matchAny(patterns []string, mac string) bool {
	if mac == "" {
		return false
	}
	for _, p := range patterns {
		if ok, err := path.Match(normalizePattern(p), mac); err == nil && ok {
			return true
		}
	}
	return false
}

// normalizeMAC lowercases and strips ':', '-' and '.' separators.
func normalizeMAC(mac string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '-', '.':
			return -1
		}
		return r
	}, strings.ToLower(mac))
}

// normalizePattern is normalizeMAC for glob patterns: separators inside a
// character class are kept so ranges like [0-9] survive.
func normalizePattern(pattern string) string {
	var b strings.Builder
	inClass := false
	for _, r := range strings.ToLower(pattern) {
		switch {
		case r == '[':
			inClass = true
		case r == ']':
			inClass = false
		case !inClass && (r == ':' || r == '-' || r == '.'):
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
