package hass

import (
	"context"
	"time"
)

// SettingsKeyAutoDiscovery is the persisted key of the auto-discovery flag.
const SettingsKeyAutoDiscovery = "hass/autodiscovery"

// persistTimeout bounds a settings read or write.
const persistTimeout = 2 * time.Second

// onSessionStatus feeds a session-status message into the state machine.
// Only a change of the connected flag triggers a sync; on disconnect the
// sync is a no-op and the broker's last will announces unavailability.
func (b *Bridge) onSessionStatus(msg string) {
	previous := b.connected
	b.connected = msg == SessionConnected
	if b.connected == previous {
		return
	}

	b.logInfo("session status changed", "connected", b.connected)
	if b.telemetry != nil {
		b.telemetry.RecordSession(b.identity.NormalizedAddress, b.connected)
	}
	b.syncDiscovery()
}

// SetAutoDiscovery enables or disables discovery. A change triggers a sync.
// When persist is set the flag is written to the settings store whether or
// not it changed.
//
// Like every other Bridge method it must run on the bus loop.
func (b *Bridge) SetAutoDiscovery(enabled, persist bool) {
	if b.autoDiscovery != enabled {
		b.autoDiscovery = enabled
		b.logInfo("auto-discovery changed", "enabled", enabled)
		b.syncDiscovery()
	}
	if persist {
		b.persistAutoDiscovery()
	}
}

// syncDiscovery publishes or retracts every payload to match the flags.
// Nothing happens while disconnected.
func (b *Bridge) syncDiscovery() {
	if !b.connected {
		return
	}
	if b.autoDiscovery {
		b.publishAttributes()
		b.publishConfigs()
		return
	}
	b.retractConfigs()
	b.retractAttributes()
}

func (b *Bridge) publishAttributes() {
	b.resolveDeviceAddress()
	for _, g := range b.registry.groups {
		b.publish(b.topics.Attributes(g.Name), b.attributePayload(g))
	}
}

func (b *Bridge) retractAttributes() {
	for _, g := range b.registry.groups {
		b.publish(b.topics.Attributes(g.Name), "")
	}
}

func (b *Bridge) publishConfigs() {
	b.resolveDeviceAddress()
	b.publish(b.topics.StatusConfig(b.identity.NormalizedAddress), b.statusConfigPayload())
	for _, e := range b.registry.entities {
		b.publish(b.topics.EntityConfig(e.DiscoveryKey()), b.configPayload(e))
	}
}

func (b *Bridge) retractConfigs() {
	b.resolveDeviceAddress()
	b.publish(b.topics.StatusConfig(b.identity.NormalizedAddress), "")
	for _, e := range b.registry.entities {
		b.publish(b.topics.EntityConfig(e.DiscoveryKey()), "")
	}
}

// publish hands a payload to the bus. Failures are logged; the bridge keeps
// its state either way.
func (b *Bridge) publish(topic, payload string) {
	var data []byte
	if payload != "" {
		data = []byte(payload)
	}
	if err := b.bus.Publish(topic, data); err != nil {
		b.logWarn("bus publish failed", "topic", topic, "error", err)
		return
	}
	b.published++
}

// loadAutoDiscovery reads the persisted flag, falling back to def.
func (b *Bridge) loadAutoDiscovery(ctx context.Context, def bool) bool {
	if b.settings == nil {
		return def
	}
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	enabled, err := b.settings.ReadBool(ctx, SettingsKeyAutoDiscovery, def)
	if err != nil {
		b.logWarn("reading auto-discovery setting failed, using default",
			"default", def,
			"error", err,
		)
		return def
	}
	return enabled
}

func (b *Bridge) persistAutoDiscovery() {
	if b.settings == nil {
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, persistTimeout)
	defer cancel()

	if err := b.settings.WriteBool(ctx, SettingsKeyAutoDiscovery, b.autoDiscovery); err != nil {
		b.logWarn("persisting auto-discovery setting failed", "error", err)
	}
}
