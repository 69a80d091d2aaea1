package mqtt

import (
	"testing"

	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/config"
)

func TestTopicBuilders(t *testing.T) {
	topics := Topics{Prefix: "omu/cat-feeder-1"}

	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name:     "Status",
			builder:  topics.Status,
			expected: "omu/cat-feeder-1/mqtt/state",
		},
		{
			name:     "Device",
			builder:  func() string { return topics.Device("bme280/sensor/temperature") },
			expected: "omu/cat-feeder-1/bme280/sensor/temperature",
		},
		{
			name:     "ResolveRelative",
			builder:  func() string { return topics.Resolve("hass/attribs/device") },
			expected: "omu/cat-feeder-1/hass/attribs/device",
		},
		{
			name:     "ResolveAbsolute",
			builder:  func() string { return topics.Resolve("!homeassistant/sensor/AABB_status/config") },
			expected: "homeassistant/sensor/AABB_status/config",
		},
		{
			name:     "Session",
			builder:  func() string { return topics.Session("disconnected") },
			expected: "omu/cat-feeder-1+omu/cat-feeder-1/mqtt/state+disconnected",
		},
		{
			name:     "TrailingSlash",
			builder:  Topics{Prefix: "omu/x/"}.Status,
			expected: "omu/x/mqtt/state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.builder(); got != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestTopicsStrip(t *testing.T) {
	topics := Topics{Prefix: "omu/cat-feeder-1"}

	tests := []struct {
		topic string
		want  string
		ok    bool
	}{
		{"omu/cat-feeder-1/hass/cmnd/enable", "hass/cmnd/enable", true},
		{"omu/cat-feeder-1/feeder/switch/set", "feeder/switch/set", true},
		{"omu/cat-feeder-1/", "", false},
		{"omu/cat-feeder-10/feeder/switch/set", "", false},
		{"homeassistant/status", "", false},
	}
	for _, tt := range tests {
		got, ok := topics.Strip(tt.topic)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Strip(%q) = %q, %v, want %q, %v", tt.topic, got, ok, tt.want, tt.ok)
		}
	}
}

func TestClientIDAndWill(t *testing.T) {
	cfg := config.MQTTConfig{}
	if id := clientID(cfg); len(id) <= len(clientIDPrefix) {
		t.Errorf("clientID() = %q, want generated id", id)
	}
	if a, b := clientID(cfg), clientID(cfg); a == b {
		t.Errorf("clientID() returned %q twice", a)
	}

	cfg.Broker.ClientID = "kitchen"
	if id := clientID(cfg); id != "kitchen" {
		t.Errorf("clientID() = %q, want kitchen", id)
	}

	if w := willMessage(cfg); w != defaultWillMessage {
		t.Errorf("willMessage() = %q, want %q", w, defaultWillMessage)
	}
	cfg.WillMessage = "offline"
	if w := willMessage(cfg); w != "offline" {
		t.Errorf("willMessage() = %q, want offline", w)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "feeder"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)
	configureLWT(opts, Topics{Prefix: cfg.Prefix}, "disconnected")

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want ssl://127.0.0.1:1883", opts.Servers)
	}
	if opts.Username != "feeder" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.WillEnabled || opts.WillTopic != "feeder-test/cat-feeder-1/mqtt/state" {
		t.Errorf("will topic = %q (enabled %v)", opts.WillTopic, opts.WillEnabled)
	}
	if string(opts.WillPayload) != "disconnected" || !opts.WillRetained {
		t.Errorf("will payload = %q retained %v", opts.WillPayload, opts.WillRetained)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not applied")
	}
}
