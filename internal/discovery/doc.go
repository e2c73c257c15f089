// Package discovery is the platform's side of WiZ device discovery.
//
// The UDP work (broadcasting registration packets, tracking which bulbs
// answer) is done by a bridge process. Client tells the bridge when to start
// and stop and with which Options, then turns the bridge's MQTT messages into
// an ordered stream of wiz.Event values:
//
//	client := discovery.NewClient(mqttClient, discovery.ClientOptions{Logger: log})
//	if err := client.StartDiscovery(discovery.OptionsFromConfig(cfg)); err != nil {
//	    return err
//	}
//	for ev := range client.Events() {
//	    ...
//	}
//
// Options.Accept is applied to every message before it becomes an event, so
// consumers never see devices outside the configured type and MAC filters.
package discovery
