// Package bridge supervises the WiZ discovery bridge.
//
// The bridge is the external process that speaks the WiZ UDP protocol and
// turns broadcasts into discovery messages on MQTT. A Supervisor runs it as a
// child process, restarting it with exponential backoff when it exits, and a
// Monitor tracks the status the bridge reports on its MQTT health topic.
// When the platform is configured with an unmanaged bridge only the Monitor
// is used.
package bridge
