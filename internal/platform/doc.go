// Package platform reconciles discovered WiZ devices with the accessory
// shells cached by the host runtime.
//
// A Controller owns the device registry and routes every input through a
// single Dispatch function, one message at a time:
//
//   - ConfigureAccessory: a cached shell replayed at startup is indexed by UUID.
//   - DidFinishLaunching / Shutdown: discovery is started or stopped.
//   - device-new / device-online: the device is bound to an accessory once,
//     reusing the cached shell for its stable identifier when there is one and
//     registering a freshly minted shell otherwise.
//   - device-offline: logged only. Bindings are never dropped for liveness.
//   - RemoveAccessory: the binding and shell index entry are dropped and the
//     shell is unregistered. This is the only way a binding goes away.
//
// Each physical device therefore maps to exactly one accessory across
// restarts, reboots and repeated discovery broadcasts.
package platform
