// Package mqtt provides the MQTT transport between the WiZ platform and the
// WiZ discovery bridge.
//
// The bridge owns the UDP side of WiZ (broadcast discovery, registration
// packets, per-device state). The platform only talks MQTT:
//
//	WiZ platform ↔ MQTT broker ↔ WiZ bridge ↔ UDP ↔ bulbs
//
// This package manages the broker connection with auto-reconnect, QoS-checked
// publishing, tracked subscriptions restored after reconnect, and a Last Will
// so other services can tell when the platform went away.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.Discovery("wiz"), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(payload)
//	    })
package mqtt
