package platform

import (
	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/wiz"
)

// Message is an input to Controller.Dispatch.
type Message interface {
	message()
}

// DeviceEvent carries a discovery event.
type DeviceEvent struct {
	Event wiz.Event
}

// ConfigureAccessoryMsg replays one cached shell.
type ConfigureAccessoryMsg struct {
	Shell *accessory.Shell
}

// DidFinishLaunchingMsg is sent once the host has replayed every shell.
type DidFinishLaunchingMsg struct{}

// ShutdownMsg is sent when the host is stopping.
type ShutdownMsg struct{}

// RemoveAccessoryMsg asks for a shell to be forgotten and unregistered.
type RemoveAccessoryMsg struct {
	Shell *accessory.Shell
}

func (DeviceEvent) message()           {}
func (ConfigureAccessoryMsg) message() {}
func (DidFinishLaunchingMsg) message() {}
func (ShutdownMsg) message()           {}
func (RemoveAccessoryMsg) message()    {}
