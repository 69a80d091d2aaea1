package mqtt

import "strings"

// Broker topic layout.
//
// Every device topic lives under a per-device prefix such as
// "omu/cat-feeder-1". The client's own availability is retained on
// "<prefix>/mqtt/state" and doubles as the Last Will topic.
const (
	// StatusSuffix is appended to the prefix to form the availability topic.
	StatusSuffix = "mqtt/state"

	// StatusConnected is published retained once the session is up.
	StatusConnected = "connected"

	// AbsoluteMarker flags a bus topic that must not be prefixed.
	AbsoluteMarker = "!"

	// sessionSeparator joins the fields of the session description.
	sessionSeparator = "+"
)

// Topics provides builders for the feeder's broker topics.
//
//	topics := mqtt.Topics{Prefix: "omu/cat-feeder-1"}
//	topics.Status()              // "omu/cat-feeder-1/mqtt/state"
//	topics.Resolve("net/rssi")   // "omu/cat-feeder-1/net/rssi"
//	topics.Resolve("!homeassistant/sensor/x/config") // "homeassistant/sensor/x/config"
type Topics struct {
	Prefix string
}

func (t Topics) root() string {
	return strings.TrimSuffix(t.Prefix, "/")
}

// Status returns the availability topic, also used as the Last Will topic.
//
// Example: omu/cat-feeder-1/mqtt/state
func (t Topics) Status() string {
	return t.Device(StatusSuffix)
}

// Device returns the broker topic for a topic relative to the prefix.
//
// Example: omu/cat-feeder-1/bme280/sensor/temperature
func (t Topics) Device(relative string) string {
	return t.root() + "/" + relative
}

// Resolve maps a bus topic to its broker topic. Topics starting with
// AbsoluteMarker are used verbatim without the marker.
func (t Topics) Resolve(busTopic string) string {
	if absolute, ok := strings.CutPrefix(busTopic, AbsoluteMarker); ok {
		return absolute
	}
	return t.Device(busTopic)
}

// Strip maps a broker topic under the prefix back to its relative bus topic.
// It reports false when topic is outside the prefix.
func (t Topics) Strip(topic string) (string, bool) {
	relative, ok := strings.CutPrefix(topic, t.root()+"/")
	if !ok || relative == "" {
		return "", false
	}
	return relative, true
}

// Session returns the session description "<prefix>+<will topic>+<will message>".
//
// Example: omu/cat-feeder-1+omu/cat-feeder-1/mqtt/state+disconnected
func (t Topics) Session(willMessage string) string {
	return t.root() + sessionSeparator + t.Status() + sessionSeparator + willMessage
}
