// Package hass announces the feeder's entities to Home Assistant using MQTT
// discovery.
//
// The Bridge keeps the device identity (hardware address, host name, IP
// address), an ordered registry of attribute groups and entities, and two
// flags: whether the MQTT session is connected and whether auto-discovery is
// enabled. Whenever the combination changes while connected it either
// publishes every payload or retracts them with empty messages:
//
//	connected + enabled:  attribute groups, device status config, entity configs
//	connected + disabled: device status config, entity configs, attribute groups (empty)
//
// All inbound traffic arrives over a Bus as relative topics:
//
//	mqtt/config          "prefix+willTopic+willMessage"
//	mqtt/state           "connected" | anything else
//	net/network          {"state":"connected","ip":"...","hostname":"..."}
//	net/rssi             {"rssi":-70}
//	hass/cmnd/enable     "save" | "on" | "1" persist the flag
//	hass/cmnd/disable
//
// Discovery configs go to "!homeassistant/<domain>/<key>/config"; the leading
// "!" tells the transport the topic is absolute.
//
// The bridge is not safe for concurrent use. It is designed to be driven by
// the single dispatch loop of internal/bus, which never runs two handlers at
// once.
//
// Usage:
//
//	b, err := hass.New(hass.Options{
//	    Bus:      bus,
//	    Device:   hass.DeviceInfo{Name: "Cat Feeder 1"},
//	    Settings: store,
//	})
//	b.AddAttributes("bme280", hass.AttributeOptions{Manufacturer: "Bosch Sensortec", Model: "BME280"})
//	b.AddSensor(hass.SensorOptions{Entity: "bme280", Value: "temperature", FriendlyName: "Temperature",
//	    Unit: "°C", DeviceClass: "temperature", AttributeGroup: "bme280"})
//	b.AddSwitch(hass.SwitchOptions{Entity: "feeder", AttributeGroup: "device", Icon: "mdi:cat"})
//	err = b.Start(ctx)
package hass
