package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  name: "Cat Feeder 1"
  manufacturer: "YeaSoft Int'l"
  model: "Balimo 4L WiFi"
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "broker.lan"
    port: 1883
  prefix: "omu/cat-feeder-1"
hass:
  auto_discovery: true
  placeholders: "on_connect"
  attributes:
    - name: bme280
      manufacturer: Bosch
      model: BME280
  sensors:
    - entity: bme280
      value: temperature
      unit: "°C"
      device_class: temperature
      attribute_group: bme280
      expire_after: 300
  switches:
    - entity: feeder
      icon: "mdi:cat"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Name != "Cat Feeder 1" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "Cat Feeder 1")
	}
	if cfg.Device.Version != "0.0.1" {
		t.Errorf("Device.Version = %q, want default %q", cfg.Device.Version, "0.0.1")
	}
	if cfg.MQTT.Prefix != "omu/cat-feeder-1" {
		t.Errorf("MQTT.Prefix = %q, want %q", cfg.MQTT.Prefix, "omu/cat-feeder-1")
	}
	if !cfg.Hass.AutoDiscovery {
		t.Error("Hass.AutoDiscovery = false, want true")
	}
	if cfg.Hass.Placeholders != "on_connect" {
		t.Errorf("Hass.Placeholders = %q, want %q", cfg.Hass.Placeholders, "on_connect")
	}
	if len(cfg.Hass.Sensors) != 1 || cfg.Hass.Sensors[0].ExpireAfter == nil || *cfg.Hass.Sensors[0].ExpireAfter != 300 {
		t.Errorf("Hass.Sensors = %+v", cfg.Hass.Sensors)
	}
	if len(cfg.Hass.Switches) != 1 || cfg.Hass.Switches[0].Icon != "mdi:cat" {
		t.Errorf("Hass.Switches = %+v", cfg.Hass.Switches)
	}
	if len(cfg.MQTT.Outbound) != 5 {
		t.Errorf("MQTT.Outbound has %d patterns, want 5 defaults", len(cfg.MQTT.Outbound))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
device:
  name: ""
hass:
  placeholders: "sometimes"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	// Every problem is reported, not just the first.
	for _, want := range []string{"device.name", "hass.placeholders"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Load() error = %v, want mention of %s", err, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	validJWTSecret := "test-secret-key-at-least-32-chars!"

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing device name",
			mutate:  func(c *Config) { c.Device.Name = "" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "missing broker host",
			mutate:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "wildcard prefix",
			mutate:  func(c *Config) { c.MQTT.Prefix = "omu/#" },
			wantErr: true,
		},
		{
			name:    "unknown placeholder mode",
			mutate:  func(c *Config) { c.Hass.Placeholders = "never" },
			wantErr: true,
		},
		{
			name:    "sensor without value",
			mutate:  func(c *Config) { c.Hass.Sensors = []HassSensorConfig{{Entity: "bme280"}} },
			wantErr: true,
		},
		{
			name:    "light without entity",
			mutate:  func(c *Config) { c.Hass.Lights = []HassLightConfig{{}} },
			wantErr: true,
		},
		{
			name:    "switch without entity",
			mutate:  func(c *Config) { c.Hass.Switches = []HassSwitchConfig{{Icon: "mdi:cat"}} },
			wantErr: true,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Network.PollInterval = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name: "invalid port ignored when api disabled",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
			},
			wantErr: false,
		},
		{
			name:    "JWT secret optional",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: false,
		},
		{
			name:    "JWT secret long enough",
			mutate:  func(c *Config) { c.Security.JWT.Secret = validJWTSecret },
			wantErr: false,
		},
		{
			name:    "JWT secret too short",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: true,
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Org = "home"
				c.InfluxDB.Bucket = "feeder"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Network: NetworkConfig{PollInterval: 15},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.GetPollInterval().Seconds(); got != 15 {
		t.Errorf("GetPollInterval() = %v, want 15", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("FEEDER_DEVICE_NAME", "Kitchen Feeder")
	t.Setenv("FEEDER_DEVICE_MAC", "aa:bb:cc:dd:ee:ff")
	t.Setenv("FEEDER_DATABASE_PATH", "/custom/path.db")
	t.Setenv("FEEDER_MQTT_HOST", "mqtt.example.com")
	t.Setenv("FEEDER_MQTT_PORT", "8883")
	t.Setenv("FEEDER_MQTT_USERNAME", "testuser")
	t.Setenv("FEEDER_MQTT_PASSWORD", "testpass")
	t.Setenv("FEEDER_MQTT_PREFIX", "omu/kitchen")
	t.Setenv("FEEDER_HASS_AUTO_DISCOVERY", "true")
	t.Setenv("FEEDER_API_HOST", "192.168.1.1")
	t.Setenv("FEEDER_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("FEEDER_LOG_LEVEL", "debug")
	t.Setenv("FEEDER_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Device.Name", cfg.Device.Name, "Kitchen Feeder"},
		{"Device.MAC", cfg.Device.MAC, "aa:bb:cc:dd:ee:ff"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"MQTT.Prefix", cfg.MQTT.Prefix, "omu/kitchen"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Logging.Level", cfg.Logging.Level, "debug"},
		{"Security.JWT.Secret", cfg.Security.JWT.Secret, "jwt-secret"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if !cfg.Hass.AutoDiscovery {
		t.Error("Hass.AutoDiscovery = false, want true")
	}
}

func TestApplyEnvOverrides_IgnoresMalformedNumbers(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("FEEDER_MQTT_PORT", "not-a-port")
	t.Setenv("FEEDER_HASS_AUTO_DISCOVERY", "maybe")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Hass.AutoDiscovery {
		t.Error("Hass.AutoDiscovery = true, want false")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Device.Name == "" {
		t.Error("defaultConfig should have non-empty Device.Name")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.MQTT.WillMessage != "disconnected" {
		t.Errorf("defaultConfig MQTT.WillMessage = %q, want %q", cfg.MQTT.WillMessage, "disconnected")
	}

	if cfg.Hass.DiscoveryPrefix != "homeassistant" {
		t.Errorf("defaultConfig Hass.DiscoveryPrefix = %q, want %q", cfg.Hass.DiscoveryPrefix, "homeassistant")
	}

	if cfg.Hass.AutoDiscovery {
		t.Error("defaultConfig should start with auto discovery off")
	}

	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
}
