package hass

import "strconv"

// initialRSSI is reported until the network collaborator sends a reading.
const initialRSSI = -99

// SignalQuality converts an RSSI in dBm to a 0-100 quality score.
func SignalQuality(rssi int) int {
	switch {
	case rssi <= -100:
		return 0
	case rssi >= -50:
		return 100
	default:
		return 2 * (rssi + 100)
	}
}

// attributePayload renders the status object published for a group.
func (b *Bridge) attributePayload(g AttributeGroup) string {
	var f Fragment
	f.Add("RSSI", strconv.Itoa(SignalQuality(b.rssi)))
	f.Add("Signal (dBm)", strconv.Itoa(b.rssi))
	f.Add("Mac", b.identity.RawAddress)
	f.Add("IP", b.identity.IPAddress)
	f.Add("Host", b.identity.HostName)
	f.Merge(g.Properties)
	return f.Object()
}

// devicePayload renders the "dev" block shared by every config payload.
func (b *Bridge) devicePayload() string {
	id := b.identity

	var f Fragment
	f.AddRaw("ids", "["+quote(id.RawAddress)+"]")
	f.AddRaw("cns", "[["+quote("IP")+","+quote(id.IPAddress)+"],["+quote("Host")+","+quote(id.HostName)+"]]")
	f.Add("name", id.Device.Name)
	f.Add("mf", id.Device.Manufacturer)
	f.Add("mdl", id.Device.Model)
	f.Add("sw", id.Device.Version)
	return f.Object()
}

// configPayload wraps an entity fragment with availability and device data.
func (b *Bridge) configPayload(e Entity) string {
	var f Fragment
	f.Add("~", b.session.Prefix+"/")
	f.Add("name", b.identity.HostName+" "+e.DisplayName)
	f.Add("avty_t", "~"+TopicSessionStatus)
	f.Add("pl_avail", SessionConnected)
	f.Add("pl_not_avail", b.session.WillMessage)
	f.Merge(b.resolvePlaceholders(e.Config))
	f.AddRaw("dev", b.devicePayload())
	return f.Object()
}

// statusConfigPayload announces the device status sensor, which reads the
// signal quality from the device attribute group.
func (b *Bridge) statusConfigPayload() string {
	attribs := b.topics.AttributesRelative(DeviceGroup)

	var f Fragment
	f.Add("~", b.session.Prefix+"/")
	f.Add("name", b.identity.HostName+" Status")
	f.Add("stat_t", attribs)
	f.Add("avty_t", "~"+TopicSessionStatus)
	f.Add("pl_avail", SessionConnected)
	f.Add("pl_not_avail", SessionDisconnected)
	f.Add("json_attr_t", attribs)
	f.Add("unit_of_meas", "%")
	f.Add("val_tpl", "{{value_json['RSSI']}}")
	f.Add("ic", "mdi:information-outline")
	f.Add("uniq_id", b.identity.NormalizedAddress+"_status")
	f.AddRaw("dev", b.devicePayload())
	return f.Object()
}
