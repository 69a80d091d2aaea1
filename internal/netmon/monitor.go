package netmon

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"sync"
	"time"
)

// Bus topics owned by the monitor.
const (
	TopicNetworkStatus  = "net/network"
	TopicNetworkRequest = "net/network/get"
	TopicSignalStrength = "net/rssi"

	StateConnected    = "connected"
	StateDisconnected = "disconnected"

	// DefaultPollInterval applies when Options.PollInterval is zero.
	DefaultPollInterval = 30 * time.Second
)

// Status is the payload of TopicNetworkStatus.
type Status struct {
	State    string `json:"state"`
	IP       string `json:"ip"`
	Hostname string `json:"hostname"`
}

// signal is the payload of TopicSignalStrength.
type signal struct {
	RSSI int `json:"rssi"`
}

// Bus is the publish/subscribe handle. Satisfied by *bus.Bus.
type Bus interface {
	Publish(topic string, payload []byte) error
	Subscribe(pattern string, handler func(topic string, payload []byte)) error
}

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Options configures a Monitor.
type Options struct {
	Bus Bus

	// Interface to watch. Empty picks the first up, non-loopback
	// interface with an IPv4 address.
	Interface string

	PollInterval time.Duration

	// WirelessPath defaults to DefaultWirelessPath.
	WirelessPath string

	Logger Logger
}

// iface is the subset of net.Interface the monitor needs.
type iface struct {
	Name         string
	HardwareAddr string
	IPv4         string
	Up           bool
	Loopback     bool
}

// Monitor reports network state and Wi-Fi signal strength on the bus.
type Monitor struct {
	bus          Bus
	name         string
	interval     time.Duration
	wirelessPath string
	logger       Logger

	interfaces func() ([]iface, error)
	hostname   func() (string, error)

	mu   sync.Mutex
	last Status
	seen bool
}

// New creates a monitor.
func New(opts Options) (*Monitor, error) {
	if opts.Bus == nil {
		return nil, ErrBusRequired
	}

	m := &Monitor{
		bus:          opts.Bus,
		name:         opts.Interface,
		interval:     opts.PollInterval,
		wirelessPath: opts.WirelessPath,
		logger:       opts.Logger,
		interfaces:   systemInterfaces,
		hostname:     os.Hostname,
	}
	if m.interval <= 0 {
		m.interval = DefaultPollInterval
	}
	if m.wirelessPath == "" {
		m.wirelessPath = DefaultWirelessPath
	}
	return m, nil
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.bus.Subscribe(TopicNetworkRequest, func(string, []byte) {
		m.publishStatus(m.Status())
	}); err != nil {
		return err
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Poll()

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll samples the interface once. Network status is published when it
// changes; signal strength is published on every poll of a wireless
// interface.
func (m *Monitor) Poll() {
	status, ifc := m.sample()

	m.mu.Lock()
	changed := !m.seen || status != m.last
	m.last, m.seen = status, true
	m.mu.Unlock()

	if changed {
		if m.logger != nil {
			m.logger.Info("network status changed",
				"state", status.State,
				"ip", status.IP,
				"hostname", status.Hostname,
			)
		}
		m.publishStatus(status)
	}

	if ifc.Name == "" {
		return
	}
	if rssi, ok := readWireless(m.wirelessPath, ifc.Name); ok {
		m.publish(TopicSignalStrength, signal{RSSI: rssi})
	}
}

// Status returns the last sampled status.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.seen {
		return Status{State: StateDisconnected}
	}
	return m.last
}

// HardwareAddress returns the MAC address of the watched interface.
func (m *Monitor) HardwareAddress() (string, error) {
	ifc, err := m.pick()
	if err != nil {
		return "", err
	}
	if ifc.HardwareAddr == "" {
		return "", ErrNoHardwareAddress
	}
	return ifc.HardwareAddr, nil
}

func (m *Monitor) sample() (Status, iface) {
	host, err := m.hostname()
	if err != nil && m.logger != nil {
		m.logger.Debug("hostname unavailable", "error", err)
	}

	ifc, err := m.pick()
	if err != nil || ifc.IPv4 == "" || !ifc.Up {
		return Status{State: StateDisconnected, Hostname: host}, ifc
	}
	return Status{State: StateConnected, IP: ifc.IPv4, Hostname: host}, ifc
}

// pick returns the named interface or the first usable one.
func (m *Monitor) pick() (iface, error) {
	all, err := m.interfaces()
	if err != nil {
		return iface{}, err
	}
	for _, ifc := range all {
		if m.name != "" {
			if ifc.Name == m.name {
				return ifc, nil
			}
			continue
		}
		if ifc.Up && !ifc.Loopback && ifc.IPv4 != "" {
			return ifc, nil
		}
	}
	return iface{}, ErrNoInterface
}

func (m *Monitor) publishStatus(status Status) {
	m.publish(TopicNetworkStatus, status)
}

func (m *Monitor) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := m.bus.Publish(topic, payload); err != nil && m.logger != nil {
		m.logger.Warn("bus publish failed", "topic", topic, "error", err)
	}
}

// systemInterfaces lists the host's interfaces with their first IPv4 address.
func systemInterfaces() ([]iface, error) {
	list, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]iface, 0, len(list))
	for _, ni := range list {
		ifc := iface{
			Name:         ni.Name,
			HardwareAddr: ni.HardwareAddr.String(),
			Up:           ni.Flags&net.FlagUp != 0,
			Loopback:     ni.Flags&net.FlagLoopback != 0,
		}
		addrs, err := ni.Addrs()
		if err == nil {
			for _, a := range addrs {
				if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
					ifc.IPv4 = ipnet.IP.String()
					break
				}
			}
		}
		out = append(out, ifc)
	}
	return out, nil
}
