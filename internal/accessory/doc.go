// Package accessory builds the platform-side accessory objects for WiZ devices.
//
// It owns three things:
//
//   - Stable identifiers: DeriveStableID maps a device identifier onto the
//     UUID used as the join key with cached accessory shells.
//   - Shells: the persisted record the host runtime keeps across restarts.
//   - The Factory: classifies a device descriptor by type and wraps it,
//     together with either a cached shell or a freshly minted one, into a
//     live Wrapper carrying HomeKit category and services (github.com/brutella/hc).
//
// # Adding a device type
//
// Support for a new device type is one entry in the profiles table in
// factory.go. Nothing outside this package needs to change.
//
// # Usage
//
//	factory := accessory.NewFactory(accessory.FactoryOptions{Logger: log})
//	w, err := factory.Create(desc, cachedShell)
//	if errors.Is(err, accessory.ErrUnsupported) {
//	    return // already logged by the factory
//	}
package accessory
