package hass

import (
	"context"
	"fmt"
)

// Default device descriptors used when Options.Device leaves them empty.
const (
	DefaultManufacturer = "Gray Logic"
	DefaultModel        = "unknown"
	DefaultVersion      = "0.0.1"
)

// Bridge publishes Home Assistant discovery and attribute payloads for the
// entities registered on it, and retracts them when discovery is disabled.
//
// Thread Safety: none. Every method, including registration and Status,
// must run on the bus loop (or before Start) so handlers never interleave.
type Bridge struct {
	bus       Bus
	settings  SettingsStore
	telemetry Telemetry
	addresses AddressSource
	topics    Topics

	staticAddress    string
	placeholders     PlaceholderMode
	defaultDiscovery bool
	routes           map[string]func(payload []byte)
	registry         registry
	identity         Identity
	session          Session
	connected        bool
	autoDiscovery    bool
	rssi             int
	published        uint64
	started          bool
	ctx              context.Context
	logger           Logger
}

// Bus is the publish/subscribe handle the bridge talks through.
type Bus interface {
	// Publish queues a message. A nil payload retracts retained state.
	Publish(topic string, payload []byte) error

	// Subscribe registers handler for a topic pattern (MQTT wildcards).
	Subscribe(pattern string, handler func(topic string, payload []byte)) error
}

// SettingsStore persists the auto-discovery flag.
// Satisfied by *settings.SQLiteStore.
type SettingsStore interface {
	ReadBool(ctx context.Context, key string, def bool) (bool, error)
	WriteBool(ctx context.Context, key string, value bool) error
}

// Telemetry receives signal and session observations.
// Optional; satisfied by *influxdb.Client.
type Telemetry interface {
	RecordSignal(deviceID string, rssi, quality int)
	RecordSession(deviceID string, connected bool)
}

// Logger interface for bridge logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options holds the collaborators and settings of a bridge.
type Options struct {
	// Bus is required.
	Bus Bus

	// Device describes the appliance. Name is required.
	Device DeviceInfo

	// Settings stores the auto-discovery flag. If nil the flag is not
	// persisted and starts at AutoDiscovery.
	Settings SettingsStore

	// AutoDiscovery is the default when nothing is persisted.
	AutoDiscovery bool

	// Addresses supplies the hardware address. Address, when set, wins.
	Addresses AddressSource
	Address   string

	// DiscoveryPrefix defaults to DefaultDiscoveryPrefix.
	DiscoveryPrefix string

	// Placeholders selects when ${HOSTNAME} and ${IPADDRESS} are resolved.
	Placeholders PlaceholderMode

	// Telemetry is optional.
	Telemetry Telemetry

	// Logger is optional.
	Logger Logger
}

// New creates a bridge and registers the device attribute group.
// Call Start to subscribe to the bus.
func New(opts Options) (*Bridge, error) {
	if opts.Bus == nil {
		return nil, ErrBusRequired
	}
	if opts.Device.Name == "" {
		return nil, ErrDeviceNameRequired
	}

	device := opts.Device
	device.Manufacturer = orDefault(device.Manufacturer, DefaultManufacturer)
	device.Model = orDefault(device.Model, DefaultModel)
	device.Version = orDefault(device.Version, DefaultVersion)

	b := &Bridge{
		bus:              opts.Bus,
		settings:         opts.Settings,
		telemetry:        opts.Telemetry,
		addresses:        opts.Addresses,
		staticAddress:    opts.Address,
		topics:           Topics{DiscoveryPrefix: opts.DiscoveryPrefix},
		placeholders:     opts.Placeholders,
		defaultDiscovery: opts.AutoDiscovery,
		autoDiscovery:    opts.AutoDiscovery,
		identity: Identity{
			HostName:  HostToken,
			IPAddress: IPToken,
			Device:    device,
		},
		rssi:   initialRSSI,
		ctx:    context.Background(),
		logger: opts.Logger,
	}
	b.routes = b.buildRoutes()

	if err := b.AddAttributes(DeviceGroup, AttributeOptions{}); err != nil {
		return nil, fmt.Errorf("registering device attributes: %w", err)
	}
	return b, nil
}

// Start loads the persisted discovery flag, subscribes the bridge's handlers
// and asks the transport for the current session state.
//
// Once the first handler is subscribed the bus loop owns the bridge, so all
// bridge state is settled before that and Start only touches the bus after.
func (b *Bridge) Start(ctx context.Context) error {
	if b.started {
		return ErrAlreadyStarted
	}
	b.started = true
	b.ctx = ctx
	b.autoDiscovery = b.loadAutoDiscovery(ctx, b.defaultDiscovery)
	b.resolveDeviceAddress()

	b.logInfo("discovery bridge starting",
		"device", b.identity.Device.Name,
		"mac", b.identity.RawAddress,
		"auto_discovery", b.autoDiscovery,
		"placeholders", b.placeholders.String(),
		"attribute_groups", len(b.registry.groups),
		"entities", len(b.registry.entities),
	)

	for _, pattern := range subscriptions() {
		if err := b.bus.Subscribe(pattern, b.HandleMessage); err != nil {
			return fmt.Errorf("subscribing to %s: %w", pattern, err)
		}
	}

	if err := b.bus.Publish(TopicSessionStateRequest, nil); err != nil {
		return fmt.Errorf("requesting session state: %w", err)
	}
	return nil
}

// EntityInfo summarises a registered entity.
type EntityInfo struct {
	Domain      Domain `json:"domain"`
	UniqueKey   string `json:"unique_key"`
	Name        string `json:"name"`
	ConfigTopic string `json:"config_topic"`
}

// Status is a point-in-time snapshot of the bridge.
type Status struct {
	Connected       bool         `json:"connected"`
	AutoDiscovery   bool         `json:"auto_discovery"`
	Identity        Identity     `json:"identity"`
	Session         Session      `json:"session"`
	RSSI            int          `json:"rssi"`
	SignalQuality   int          `json:"signal_quality"`
	Published       uint64       `json:"published"`
	AttributeGroups []string     `json:"attribute_groups"`
	Entities        []EntityInfo `json:"entities"`
}

// Status returns a copy of the bridge state.
func (b *Bridge) Status() Status {
	s := Status{
		Connected:       b.connected,
		AutoDiscovery:   b.autoDiscovery,
		Identity:        b.identity,
		Session:         b.session,
		RSSI:            b.rssi,
		SignalQuality:   SignalQuality(b.rssi),
		Published:       b.published,
		AttributeGroups: make([]string, 0, len(b.registry.groups)),
		Entities:        make([]EntityInfo, 0, len(b.registry.entities)),
	}
	for _, g := range b.registry.groups {
		s.AttributeGroups = append(s.AttributeGroups, g.Name)
	}
	for _, e := range b.registry.entities {
		s.Entities = append(s.Entities, EntityInfo{
			Domain:      e.Domain,
			UniqueKey:   e.UniqueKey,
			Name:        e.DisplayName,
			ConfigTopic: b.topics.EntityConfig(e.DiscoveryKey()),
		})
	}
	return s
}

// Connected reports the last session status.
func (b *Bridge) Connected() bool {
	return b.connected
}

// AutoDiscovery reports whether discovery payloads are currently wanted.
func (b *Bridge) AutoDiscovery() bool {
	return b.autoDiscovery
}

// Logger helpers

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, keysAndValues...)
	}
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, keysAndValues...)
	}
}
