// Package device provides the Device Registry for the WiZ platform.
//
// The registry is the single owner of two indexes that must agree:
//
//	┌──────────────────────────────────────────────────────────┐
//	│                      Device Registry                      │
//	│                                                           │
//	│   bindings: device ID ──▶ Binding{Accessory: *Wrapper}    │
//	│   shells:   stable ID ──▶ *accessory.Shell                │
//	│                                                           │
//	│   Put / Remove change both; IndexShell / DropShell only   │
//	│   touch shells that have no binding yet.                  │
//	└──────────────────────────────────────────────────────────┘
//
// At most one binding exists per device identifier: Put refuses a second
// one with ErrDuplicateBinding, and only Remove frees the slot again.
//
// # Usage
//
//	reg := device.NewRegistry()
//	reg.SetLogger(log)
//
//	// Replay cached shells at startup
//	_ = reg.IndexShell(shell)
//
//	// Bind a device
//	if _, ok := reg.Get(desc.ID); !ok {
//	    err := reg.Put(desc.ID, device.NewBinding(wrapper))
//	}
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Mutation is expected to come from
// the platform controller's event loop only.
package device
