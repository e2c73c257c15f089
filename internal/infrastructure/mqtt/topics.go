package mqtt

import "fmt"

// TopicPrefix is the root of every topic the platform publishes or subscribes to.
//
// Layout: wizplatform/{category}/{protocol_or_id}
const TopicPrefix = "wizplatform"

// Topics provides builders for the platform's MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Discovery("wiz") // "wizplatform/discovery/wiz"
type Topics struct{}

// Discovery is where a bridge publishes discovery events.
//
// Example: wizplatform/discovery/wiz
func (Topics) Discovery(protocol string) string {
	return fmt.Sprintf("%s/discovery/%s", TopicPrefix, protocol)
}

// Config is where the platform sends discovery commands and options to a bridge.
//
// Example: wizplatform/config/wiz
func (Topics) Config(protocol string) string {
	return fmt.Sprintf("%s/config/%s", TopicPrefix, protocol)
}

// BridgeHealth is where a bridge reports its own status.
//
// Example: wizplatform/health/wiz
func (Topics) BridgeHealth(protocol string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, protocol)
}

// Event is where the platform announces accessory lifecycle events.
//
// Example: wizplatform/event/accessory_registered
func (Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, eventType)
}

// SystemStatus carries the platform's online/offline status (retained, LWT).
//
// Example: wizplatform/system/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// AllDiscovery matches discovery events from every bridge.
//
// Pattern: wizplatform/discovery/+
func (Topics) AllDiscovery() string {
	return TopicPrefix + "/discovery/+"
}

// AllEvents matches every platform event.
//
// Pattern: wizplatform/event/+
func (Topics) AllEvents() string {
	return TopicPrefix + "/event/+"
}
