package hass

import (
	"strings"
)

// Placeholder tokens embedded in config fragments wherever an absolute topic
// needs the device's network identity.
const (
	HostToken = "${HOSTNAME}"
	IPToken   = "${IPADDRESS}"
)

// PlaceholderMode selects when placeholder tokens are resolved.
type PlaceholderMode int

const (
	// ResolveAtPublish keeps fragments as templates and substitutes the
	// current host name and IP address each time a payload is built.
	ResolveAtPublish PlaceholderMode = iota

	// ResolveOnConnect rewrites every registered fragment in place when the
	// network reports a connection. Entities registered afterwards keep their
	// tokens until the next network-connected event, and are published with
	// the tokens unresolved in the meantime.
	ResolveOnConnect
)

// String returns the config spelling of the mode.
func (m PlaceholderMode) String() string {
	switch m {
	case ResolveOnConnect:
		return "on_connect"
	default:
		return "at_publish"
	}
}

// ParsePlaceholderMode maps a config value to a PlaceholderMode.
// Unknown values select ResolveAtPublish.
func ParsePlaceholderMode(s string) PlaceholderMode {
	if strings.EqualFold(strings.TrimSpace(s), "on_connect") {
		return ResolveOnConnect
	}
	return ResolveAtPublish
}

// AddressSource provides the device hardware address.
type AddressSource interface {
	HardwareAddress() (string, error)
}

// DeviceInfo describes the physical device announced to Home Assistant.
type DeviceInfo struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Version      string `json:"version"`
}

// Identity is the device's addressing and descriptive state.
type Identity struct {
	RawAddress        string     `json:"raw_address"`
	NormalizedAddress string     `json:"normalized_address"`
	HostName          string     `json:"host_name"`
	IPAddress         string     `json:"ip_address"`
	Device            DeviceInfo `json:"device"`
}

// Session holds the transport parameters announced on the session-config topic.
type Session struct {
	Prefix      string `json:"prefix"`
	WillTopic   string `json:"will_topic"`
	WillMessage string `json:"will_message"`
}

// parseSession splits "prefix+willTopic+willMessage" on the first two '+'.
// Missing fields are left empty.
func parseSession(msg string) Session {
	parts := strings.SplitN(msg, "+", 3)
	var s Session
	s.Prefix = parts[0]
	if len(parts) > 1 {
		s.WillTopic = parts[1]
	}
	if len(parts) > 2 {
		s.WillMessage = parts[2]
	}
	return s
}

// NormalizeAddress strips separators from a hardware address and upper-cases it.
func NormalizeAddress(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '-', '.':
			return -1
		}
		if r >= 'a' && r <= 'z' {
			return r - 'a' + 'A'
		}
		return r
	}, raw)
}

// resolveDeviceAddress fills the hardware address the first time it succeeds.
// Later calls are no-ops.
func (b *Bridge) resolveDeviceAddress() {
	if b.identity.NormalizedAddress != "" {
		return
	}

	raw := b.staticAddress
	if raw == "" && b.addresses != nil {
		addr, err := b.addresses.HardwareAddress()
		if err != nil {
			b.logWarn("hardware address unavailable", "error", err)
			return
		}
		raw = addr
	}
	if raw == "" {
		return
	}

	b.identity.RawAddress = strings.ToUpper(raw)
	b.identity.NormalizedAddress = NormalizeAddress(raw)
	b.logDebug("device address resolved", "mac", b.identity.RawAddress)
}

// onNetworkConnected records the current network identity.
func (b *Bridge) onNetworkConnected(ip, hostName string) {
	b.identity.IPAddress = ip
	b.identity.HostName = hostName

	if b.placeholders != ResolveOnConnect {
		return
	}

	r := b.placeholderReplacer()
	for i := range b.registry.entities {
		b.registry.entities[i].Config = r.Replace(b.registry.entities[i].Config)
	}
}

// resolvePlaceholders substitutes tokens for publishing.
func (b *Bridge) resolvePlaceholders(fragment string) string {
	if b.placeholders == ResolveOnConnect {
		return fragment
	}
	return b.placeholderReplacer().Replace(fragment)
}

func (b *Bridge) placeholderReplacer() *strings.Replacer {
	return strings.NewReplacer(
		HostToken, escape(b.identity.HostName),
		IPToken, escape(b.identity.IPAddress),
	)
}
