package hass

import "strings"

// Bus topics consumed by the bridge. They are relative to the device; the
// transport prefixes them when relaying to the broker.
const (
	TopicSessionConfig       = "mqtt/config"
	TopicSessionStatus       = "mqtt/state"
	TopicSessionStateRequest = "mqtt/state/get"
	TopicNetworkStatus       = "net/network"
	TopicSignalStrength      = "net/rssi"
	TopicCommandEnable       = "hass/cmnd/enable"
	TopicCommandDisable      = "hass/cmnd/disable"
	TopicCommands            = "hass/cmnd/#"
)

// AbsoluteMarker prefixes bus topics that must reach the broker unprefixed.
const AbsoluteMarker = "!"

// DefaultDiscoveryPrefix is the Home Assistant discovery root.
const DefaultDiscoveryPrefix = "homeassistant"

// Session status values published on TopicSessionStatus.
const (
	SessionConnected    = "connected"
	SessionDisconnected = "disconnected"
)

// DeviceGroup is the attribute group every bridge registers first.
const DeviceGroup = "device"

const attribTopicRoot = "hass/attribs/"

// Topics builds the bridge's outbound topics.
//
//	t := hass.Topics{DiscoveryPrefix: "homeassistant"}
//	t.EntityConfig("sensor/AABBCCDDEEFF_bme280_Temperature")
//	// Returns: "!homeassistant/sensor/AABBCCDDEEFF_bme280_Temperature/config"
type Topics struct {
	DiscoveryPrefix string
}

// Attributes returns the bus topic carrying an attribute group payload.
func (t Topics) Attributes(group string) string {
	return attribTopicRoot + group
}

// AttributesRelative returns the attribute topic as referenced from inside a
// discovery payload, relative to the "~" base topic.
func (t Topics) AttributesRelative(group string) string {
	return "~" + attribTopicRoot + group
}

// EntityConfig returns the absolute discovery config topic for a key of the
// form "<domain>/<uniqueKey>".
func (t Topics) EntityConfig(discoveryKey string) string {
	return AbsoluteMarker + t.root() + "/" + discoveryKey + "/config"
}

// StatusConfig returns the discovery config topic of the device status sensor.
func (t Topics) StatusConfig(normalizedAddress string) string {
	return t.EntityConfig(string(DomainSensor) + "/" + normalizedAddress + "_status")
}

func (t Topics) root() string {
	if t.DiscoveryPrefix == "" {
		return DefaultDiscoveryPrefix
	}
	return strings.TrimSuffix(t.DiscoveryPrefix, "/")
}

// EntityTopic returns the relative topic "<entity>/<domain>/<leaf>" an
// entity's state and commands travel on. Whitespace in entity becomes '_'.
func EntityTopic(entity string, domain Domain, leaf string) string {
	return underscore(entity) + "/" + string(domain) + "/" + leaf
}
