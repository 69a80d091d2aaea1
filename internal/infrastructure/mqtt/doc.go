// Package mqtt provides MQTT broker connectivity for the feeder.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) on "<prefix>/mqtt/state"
//   - Connection health monitoring
//
// # Topic Layout
//
// Every device topic lives below a per-device prefix. Bus topics are
// relative to that prefix unless they start with "!", in which case they
// are absolute broker topics (used for Home Assistant discovery configs):
//
//	omu/cat-feeder-1/mqtt/state             availability, retained
//	omu/cat-feeder-1/hass/attribs/device    attribute payload
//	homeassistant/switch/<mac>_feeder/config discovery config
//
// # Security Considerations
//
//   - Use TLS when the broker is reachable beyond the local network (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().Device("+/switch/set"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
