package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the feeder.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Hass      HassConfig      `yaml:"hass"`
	Network   NetworkConfig   `yaml:"network"`
	Bus       BusConfig       `yaml:"bus"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// DeviceConfig describes the appliance announced to Home Assistant.
type DeviceConfig struct {
	Name         string `yaml:"name"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
	Version      string `yaml:"version"`
	// MAC overrides the hardware address read from the network interface.
	MAC string `yaml:"mac"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection and relay settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// Prefix is prepended to relative bus topics. Empty means "feeder/<hostname>".
	Prefix string `yaml:"prefix"`

	// WillMessage is published on "<prefix>/mqtt/state" by the broker when
	// the connection drops.
	WillMessage string `yaml:"will_message"`

	// Retain marks relayed device topics as retained.
	Retain bool `yaml:"retain"`

	// Outbound lists bus patterns relayed to the broker under the prefix.
	Outbound []string `yaml:"outbound"`

	// Inbound lists patterns, relative to the prefix and to the host name,
	// subscribed on the broker and republished on the bus.
	Inbound []string `yaml:"inbound"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// HassConfig contains Home Assistant discovery settings and the entities to announce.
type HassConfig struct {
	// AutoDiscovery is the default when no flag has been persisted.
	AutoDiscovery   bool   `yaml:"auto_discovery"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`

	// Placeholders is "at_publish" (default) or "on_connect".
	Placeholders string `yaml:"placeholders"`

	Attributes []HassAttributeConfig `yaml:"attributes"`
	Sensors    []HassSensorConfig    `yaml:"sensors"`
	Lights     []HassLightConfig     `yaml:"lights"`
	Switches   []HassSwitchConfig    `yaml:"switches"`
}

// HassAttributeConfig declares an attribute group.
type HassAttributeConfig struct {
	Name         string `yaml:"name"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
	Version      string `yaml:"version"`
}

// HassSensorConfig declares a sensor entity.
type HassSensorConfig struct {
	Entity         string `yaml:"entity"`
	Value          string `yaml:"value"`
	FriendlyName   string `yaml:"friendly_name"`
	Unit           string `yaml:"unit"`
	DeviceClass    string `yaml:"device_class"`
	Icon           string `yaml:"icon"`
	ValueTemplate  string `yaml:"value_template"`
	AttributeGroup string `yaml:"attribute_group"`
	ExpireAfter    *int   `yaml:"expire_after"`
	ForceUpdate    bool   `yaml:"force_update"`
}

// HassLightConfig declares a light entity.
type HassLightConfig struct {
	Entity         string `yaml:"entity"`
	AttributeGroup string `yaml:"attribute_group"`
}

// HassSwitchConfig declares a switch entity.
type HassSwitchConfig struct {
	Entity         string `yaml:"entity"`
	AttributeGroup string `yaml:"attribute_group"`
	Icon           string `yaml:"icon"`
}

// NetworkConfig controls the network monitor.
type NetworkConfig struct {
	// Interface to report on. Empty selects the first active non-loopback interface.
	Interface string `yaml:"interface"`
	// PollInterval in seconds.
	PollInterval int `yaml:"poll_interval"`
	// WirelessPath is the kernel wireless statistics file.
	WirelessPath string `yaml:"wireless_path"`
}

// BusConfig controls the in-process message bus.
type BusConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings. An empty secret leaves the API open,
// which is the normal setup on a trusted LAN.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// minJWTSecretLength is the shortest accepted HS256 secret.
const minJWTSecretLength = 32

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FEEDER_SECTION_KEY
// For example: FEEDER_DATABASE_PATH, FEEDER_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:         "Feeder",
			Manufacturer: "Gray Logic",
			Model:        "unknown",
			Version:      "0.0.1",
		},
		Database: DatabaseConfig{
			Path:        "./data/feeder.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			WillMessage: "disconnected",
			Outbound: []string{
				"hass/#",
				"+/sensor/#",
				"+/switch/state",
				"+/light/state",
				"+/light/unitbrightness",
			},
			Inbound: []string{
				"hass/cmnd/#",
				"cmnd/#",
				"+/switch/set",
				"+/light/set",
			},
		},
		Hass: HassConfig{
			DiscoveryPrefix: "homeassistant",
			Placeholders:    "at_publish",
		},
		Network: NetworkConfig{
			PollInterval: 30,
			WirelessPath: "/proc/net/wireless",
		},
		Bus: BusConfig{
			QueueSize: 1024,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FEEDER_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("FEEDER_DEVICE_NAME"); v != "" {
		cfg.Device.Name = v
	}
	if v := os.Getenv("FEEDER_DEVICE_MAC"); v != "" {
		cfg.Device.MAC = v
	}

	// Database
	if v := os.Getenv("FEEDER_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("FEEDER_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FEEDER_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("FEEDER_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FEEDER_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("FEEDER_MQTT_PREFIX"); v != "" {
		cfg.MQTT.Prefix = v
	}

	// Home Assistant
	if v := os.Getenv("FEEDER_HASS_AUTO_DISCOVERY"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Hass.AutoDiscovery = enabled
		}
	}

	// API
	if v := os.Getenv("FEEDER_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("FEEDER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("FEEDER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Security
	if v := os.Getenv("FEEDER_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Device.Name == "" {
		errs = append(errs, "device.name is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if strings.ContainsAny(c.MQTT.Prefix, "+#") {
		errs = append(errs, "mqtt.prefix must not contain wildcards")
	}

	// Home Assistant validation
	switch c.Hass.Placeholders {
	case "", "at_publish", "on_connect":
	default:
		errs = append(errs, "hass.placeholders must be at_publish or on_connect")
	}
	for i, s := range c.Hass.Sensors {
		if s.Entity == "" || s.Value == "" {
			errs = append(errs, fmt.Sprintf("hass.sensors[%d] needs entity and value", i))
		}
	}
	for i, l := range c.Hass.Lights {
		if l.Entity == "" {
			errs = append(errs, fmt.Sprintf("hass.lights[%d].entity is required", i))
		}
	}
	for i, s := range c.Hass.Switches {
		if s.Entity == "" {
			errs = append(errs, fmt.Sprintf("hass.switches[%d].entity is required", i))
		}
	}

	if c.Network.PollInterval < 1 {
		errs = append(errs, "network.poll_interval must be at least 1 second")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.Security.JWT.Secret != "" && len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetPollInterval returns the network poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Network.PollInterval) * time.Second
}
