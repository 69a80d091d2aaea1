// Package transport relays messages between the in-process bus and the
// MQTT broker.
//
// Outbound, local topics matching the configured patterns are published
// under the device prefix, and topics starting with "!" are published
// verbatim and retained. Inbound, broker topics under the prefix (or under
// the host name, which Home Assistant command topics use) are republished
// on the bus with the prefix stripped and originator "mqtt".
//
// The relay also owns the session topics: "mqtt/config" carries
// "<prefix>+<will topic>+<will message>" and "mqtt/state" carries
// "connected" or "disconnected". A message on "mqtt/state/get" makes it
// announce both again.
package transport
