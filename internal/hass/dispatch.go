package hass

import (
	"encoding/json"
	"math"
)

// Plausible RSSI range in dBm. Readings outside it are treated as malformed.
const (
	minRSSI = -150
	maxRSSI = 0
)

// networkStatus is the payload of TopicNetworkStatus.
type networkStatus struct {
	State    string `json:"state"`
	IP       string `json:"ip"`
	Hostname string `json:"hostname"`
}

// signalStrength is the payload of TopicSignalStrength.
type signalStrength struct {
	RSSI *float64 `json:"rssi"`
}

// routes maps each inbound topic to its handler. Built once in New.
func (b *Bridge) buildRoutes() map[string]func(payload []byte) {
	return map[string]func(payload []byte){
		TopicSessionConfig:  b.handleSessionConfig,
		TopicSessionStatus:  b.handleSessionStatus,
		TopicNetworkStatus:  b.handleNetworkStatus,
		TopicSignalStrength: b.handleSignalStrength,
		TopicCommandEnable:  b.handleEnable,
		TopicCommandDisable: b.handleDisable,
	}
}

// subscriptions lists the bus patterns covering every route.
func subscriptions() []string {
	return []string{
		TopicSessionConfig,
		TopicSessionStatus,
		TopicNetworkStatus,
		TopicSignalStrength,
		TopicCommands,
	}
}

// HandleMessage routes one bus message. Unknown topics are ignored.
func (b *Bridge) HandleMessage(topic string, payload []byte) {
	handler, ok := b.routes[topic]
	if !ok {
		return
	}
	handler(payload)
}

func (b *Bridge) handleSessionConfig(payload []byte) {
	b.session = parseSession(string(payload))
	b.logDebug("session config received",
		"prefix", b.session.Prefix,
		"will_topic", b.session.WillTopic,
	)
}

func (b *Bridge) handleSessionStatus(payload []byte) {
	b.onSessionStatus(string(payload))
}

func (b *Bridge) handleNetworkStatus(payload []byte) {
	var msg networkStatus
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.logDebug("dropping malformed network status", "error", err)
		return
	}
	if msg.State != "connected" {
		return
	}
	b.onNetworkConnected(msg.IP, msg.Hostname)
}

func (b *Bridge) handleSignalStrength(payload []byte) {
	var msg signalStrength
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.logDebug("dropping malformed signal strength", "error", err)
		return
	}
	if msg.RSSI == nil {
		b.logDebug("dropping signal strength without rssi")
		return
	}
	rssi := *msg.RSSI
	if rssi != math.Trunc(rssi) || rssi < minRSSI || rssi > maxRSSI {
		b.logDebug("dropping implausible rssi", "rssi", rssi)
		return
	}

	b.rssi = int(rssi)
	if b.telemetry != nil {
		b.telemetry.RecordSignal(b.identity.NormalizedAddress, b.rssi, SignalQuality(b.rssi))
	}
	if b.autoDiscovery {
		b.publishAttributes()
	}
}

func (b *Bridge) handleEnable(payload []byte) {
	b.SetAutoDiscovery(true, persistRequested(payload))
}

func (b *Bridge) handleDisable(payload []byte) {
	b.SetAutoDiscovery(false, persistRequested(payload))
}

// persistRequested reports whether a command payload asks to save the flag.
func persistRequested(payload []byte) bool {
	switch string(payload) {
	case "save", "on", "1":
		return true
	}
	return false
}
