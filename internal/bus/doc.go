// Package bus provides the in-process publish/subscribe loop that drives the
// feeder's components.
//
// Every component (discovery bridge, MQTT relay, network monitor, API)
// exchanges relative topics such as "mqtt/state" or "net/rssi" over one Bus.
// A single goroutine running Run delivers messages in the order they were
// published, and runs each handler to completion before starting the next.
// Handlers therefore share state without locks.
//
// Topics prefixed with "!" are absolute; the MQTT relay forwards them to the
// broker without the device prefix. Subscriptions use MQTT wildcards.
//
// Usage:
//
//	b := bus.New(bus.Options{Logger: log})
//	go b.Run(ctx)
//
//	b.Subscribe("net/#", func(topic string, payload []byte) { ... })
//	b.Publish("net/rssi", []byte(`{"rssi":-70}`))
//
//	// Read handler-owned state from another goroutine.
//	b.Do(ctx, func() { status = bridge.Status() })
package bus
