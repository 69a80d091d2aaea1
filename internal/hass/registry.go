package hass

import (
	"strings"
	"unicode"
)

// Domain is a Home Assistant entity platform.
type Domain string

// Supported entity domains.
const (
	DomainSensor Domain = "sensor"
	DomainLight  Domain = "light"
	DomainSwitch Domain = "switch"
)

// AttributeGroup is a named bundle of descriptive properties published on
// its own attributes topic and referenced by entities via json_attr_t.
type AttributeGroup struct {
	Name string
	// Properties is a rendered member list without braces or trailing comma.
	Properties string
}

// Entity is one discoverable sensor, light or switch.
type Entity struct {
	Domain      Domain
	UniqueKey   string
	DisplayName string
	// Config is the domain-specific member list, possibly holding
	// placeholder tokens.
	Config string
}

// DiscoveryKey returns "<domain>/<uniqueKey>", the discovery topic suffix.
func (e Entity) DiscoveryKey() string {
	return string(e.Domain) + "/" + e.UniqueKey
}

// registry holds attribute groups and entities in registration order.
type registry struct {
	groups   []AttributeGroup
	entities []Entity
}

// addGroup stores g unless a group with the same name exists.
func (r *registry) addGroup(g AttributeGroup) bool {
	if _, ok := r.group(g.Name); ok {
		return false
	}
	r.groups = append(r.groups, g)
	return true
}

func (r *registry) group(name string) (AttributeGroup, bool) {
	for _, g := range r.groups {
		if g.Name == name {
			return g, true
		}
	}
	return AttributeGroup{}, false
}

func (r *registry) addEntity(e Entity) {
	r.entities = append(r.entities, e)
}

// AttributeOptions overrides the device defaults for an attribute group.
type AttributeOptions struct {
	Manufacturer string
	Model        string
	Version      string
}

// noExpiry is the exp_aft value Home Assistant assumes when it is absent.
const noExpiry = -1

// SensorOptions describes a sensor entity.
type SensorOptions struct {
	// Entity is the hardware component name, e.g. "bme280".
	Entity string
	// Value is the measured quantity, e.g. "temperature". The state topic
	// is "<Entity>/sensor/<Value>".
	Value string
	// FriendlyName defaults to Value.
	FriendlyName string

	Unit           string
	DeviceClass    string
	Icon           string
	ValueTemplate  string
	AttributeGroup string

	// ExpireAfter in seconds. Nil leaves exp_aft out of the config; any
	// other value except -1 is sent, including 0.
	ExpireAfter *int
	ForceUpdate bool
}

// LightOptions describes a dimmable light entity.
type LightOptions struct {
	Entity         string
	AttributeGroup string
}

// SwitchOptions describes a switch entity.
type SwitchOptions struct {
	Entity         string
	AttributeGroup string
	Icon           string
}

// AddAttributes registers an attribute group. Empty options fall back to
// the device's manufacturer, model and version. Registering an existing
// name is a no-op; the first registration wins.
func (b *Bridge) AddAttributes(group string, opts AttributeOptions) error {
	if group == "" {
		return ErrGroupNameRequired
	}

	var f Fragment
	f.Add("Manufacturer", orDefault(opts.Manufacturer, b.identity.Device.Manufacturer))
	f.Add("Model", orDefault(opts.Model, b.identity.Device.Model))
	f.Add("Version", orDefault(opts.Version, b.identity.Device.Version))

	if !b.registry.addGroup(AttributeGroup{Name: group, Properties: f.String()}) {
		b.logDebug("attribute group already registered", "group", group)
	}
	return nil
}

// AddSensor registers a sensor. Registering the same sensor twice yields two
// entries sharing a unique key; the second publication updates the first.
func (b *Bridge) AddSensor(opts SensorOptions) error {
	if opts.Entity == "" {
		return ErrEntityNameRequired
	}
	if opts.Value == "" {
		return ErrValueNameRequired
	}
	friendly := orDefault(opts.FriendlyName, opts.Value)

	b.resolveDeviceAddress()
	key := uniqueKey(b.identity.NormalizedAddress, opts.Entity, friendly)
	topic := underscore(opts.Entity)

	expireAfter := noExpiry
	if opts.ExpireAfter != nil {
		expireAfter = *opts.ExpireAfter
	}

	var f Fragment
	f.Add("stat_t", "~"+topic+"/sensor/"+opts.Value)
	f.AddIf("json_attr_t", b.attributeReference(opts.AttributeGroup))
	f.AddIf("val_tpl", opts.ValueTemplate)
	f.AddIf("dev_cla", opts.DeviceClass)
	f.AddIf("unit_of_meas", opts.Unit)
	f.AddIntIf("exp_aft", expireAfter, noExpiry)
	f.AddBoolIf("frc_upd", opts.ForceUpdate, false)
	f.AddIf("ic", opts.Icon)
	f.Add("uniq_id", key)

	b.registry.addEntity(Entity{
		Domain:      DomainSensor,
		UniqueKey:   key,
		DisplayName: opts.Entity + " " + friendly,
		Config:      f.String(),
	})
	return nil
}

// AddLight registers a dimmable light driven through "<Entity>/light/set".
func (b *Bridge) AddLight(opts LightOptions) error {
	if opts.Entity == "" {
		return ErrEntityNameRequired
	}

	b.resolveDeviceAddress()
	key := uniqueKey(b.identity.NormalizedAddress, opts.Entity)
	topic := underscore(opts.Entity)
	command := HostToken + "/" + topic + "/light/set"

	var f Fragment
	f.Add("stat_t", "~"+topic+"/light/state")
	f.Add("cmd_t", command)
	f.AddIf("json_attr_t", b.attributeReference(opts.AttributeGroup))
	f.Add("bri_stat_t", "~"+topic+"/light/unitbrightness")
	f.Add("bri_scl", "100")
	f.Add("bri_val_tpl", "{{ value | float * 100 | round(0) }}")
	f.Add("bri_cmd_t", command)
	f.Add("on_cmd_type", "brightness")
	f.Add("pl_on", "on")
	f.Add("pl_off", "off")
	f.Add("uniq_id", key)

	b.registry.addEntity(Entity{
		Domain:      DomainLight,
		UniqueKey:   key,
		DisplayName: opts.Entity,
		Config:      f.String(),
	})
	return nil
}

// AddSwitch registers an on/off switch driven through "<Entity>/switch/set".
func (b *Bridge) AddSwitch(opts SwitchOptions) error {
	if opts.Entity == "" {
		return ErrEntityNameRequired
	}

	b.resolveDeviceAddress()
	key := uniqueKey(b.identity.NormalizedAddress, opts.Entity)

	var f Fragment
	f.Add("stat_t", "~"+EntityTopic(opts.Entity, DomainSwitch, "state"))
	f.Add("stat_on", "on")
	f.Add("stat_off", "off")
	f.Add("cmd_t", HostToken+"/"+EntityTopic(opts.Entity, DomainSwitch, "set"))
	f.AddIf("json_attr_t", b.attributeReference(opts.AttributeGroup))
	f.AddIf("ic", opts.Icon)
	f.Add("pl_on", "on")
	f.Add("pl_off", "off")
	f.Add("uniq_id", key)

	b.registry.addEntity(Entity{
		Domain:      DomainSwitch,
		UniqueKey:   key,
		DisplayName: opts.Entity,
		Config:      f.String(),
	})
	return nil
}

func (b *Bridge) attributeReference(group string) string {
	if group == "" {
		return ""
	}
	return b.topics.AttributesRelative(group)
}

// uniqueKey joins the address and names with '_' and replaces whitespace.
func uniqueKey(address string, names ...string) string {
	return underscore(address + "_" + strings.Join(names, "_"))
}

func underscore(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, s)
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
