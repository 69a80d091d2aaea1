package netmon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wirelessTable = `Inter-| sta-|   Quality        |   Discarded packets               | Missed | WE
 face | tus | link level noise |  nwid  crypt   frag  retry   misc | beacon | 22
 wlan0: 0000   54.  -56.  -256        0      0      0      0      0        0
wlan1: 0000   20.  -90.  -256        0      0      0      0      0        0
`

type busMsg struct {
	topic   string
	payload string
}

// mockBus records publishes and invokes handlers synchronously.
type mockBus struct {
	mu        sync.Mutex
	published []busMsg
	handlers  map[string]func(string, []byte)
}

func newMockBus() *mockBus {
	return &mockBus{handlers: make(map[string]func(string, []byte))}
}

func (b *mockBus) Publish(topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, busMsg{topic, string(payload)})
	return nil
}

func (b *mockBus) Subscribe(pattern string, handler func(string, []byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[pattern] = handler
	return nil
}

func (b *mockBus) messages() []busMsg {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]busMsg, len(b.published))
	copy(out, b.published)
	return out
}

func (b *mockBus) clear() {
	b.mu.Lock()
	b.published = nil
	b.mu.Unlock()
}

func newTestMonitor(t *testing.T, opts Options, ifaces *[]iface) (*Monitor, *mockBus) {
	t.Helper()
	b := newMockBus()
	opts.Bus = b
	if opts.WirelessPath == "" {
		path := filepath.Join(t.TempDir(), "wireless")
		require.NoError(t, os.WriteFile(path, []byte(wirelessTable), 0600))
		opts.WirelessPath = path
	}
	m, err := New(opts)
	require.NoError(t, err)
	m.interfaces = func() ([]iface, error) { return *ifaces, nil }
	m.hostname = func() (string, error) { return "cat-feeder-1", nil }
	return m, b
}

func TestNew_RequiresBus(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrBusRequired)
}

func TestNew_Defaults(t *testing.T) {
	m, err := New(Options{Bus: newMockBus()})
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, m.interval)
	assert.Equal(t, DefaultWirelessPath, m.wirelessPath)
}

func TestParseWireless(t *testing.T) {
	tests := []struct {
		iface  string
		want   int
		wantOK bool
	}{
		{"wlan0", -56, true},
		{"wlan1", -90, true},
		{"eth0", 0, false},
		{"face", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseWireless(strings.NewReader(wirelessTable), tt.iface)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseWireless(%q) = %d, %v, want %d, %v", tt.iface, got, ok, tt.want, tt.wantOK)
		}
	}

	if _, ok := parseWireless(strings.NewReader("wlan0: 0000 54."), "wlan0"); ok {
		t.Error("parseWireless() accepted a truncated row")
	}
}

func TestReadWireless_MissingFile(t *testing.T) {
	_, ok := readWireless(filepath.Join(t.TempDir(), "absent"), "wlan0")
	assert.False(t, ok)
}

func TestPoll_PublishesOnChange(t *testing.T) {
	ifaces := []iface{
		{Name: "lo", IPv4: "127.0.0.1", Up: true, Loopback: true},
		{Name: "wlan0", HardwareAddr: "aa:bb:cc:dd:ee:ff", IPv4: "10.0.0.7", Up: true},
	}
	m, b := newTestMonitor(t, Options{}, &ifaces)

	m.Poll()
	assert.Equal(t, []busMsg{
		{TopicNetworkStatus, `{"state":"connected","ip":"10.0.0.7","hostname":"cat-feeder-1"}`},
		{TopicSignalStrength, `{"rssi":-56}`},
	}, b.messages())

	// Unchanged status: only the signal is repeated.
	b.clear()
	m.Poll()
	assert.Equal(t, []busMsg{{TopicSignalStrength, `{"rssi":-56}`}}, b.messages())

	// Address lost.
	b.clear()
	ifaces[1].IPv4 = ""
	m.Poll()
	assert.Equal(t, []busMsg{
		{TopicNetworkStatus, `{"state":"disconnected","ip":"","hostname":"cat-feeder-1"}`},
	}, b.messages())
}

func TestPoll_NamedWiredInterface(t *testing.T) {
	ifaces := []iface{
		{Name: "wlan0", IPv4: "10.0.0.7", Up: true},
		{Name: "eth0", HardwareAddr: "11:22:33:44:55:66", IPv4: "192.168.1.20", Up: true},
	}
	m, b := newTestMonitor(t, Options{Interface: "eth0"}, &ifaces)

	m.Poll()
	assert.Equal(t, []busMsg{
		{TopicNetworkStatus, `{"state":"connected","ip":"192.168.1.20","hostname":"cat-feeder-1"}`},
	}, b.messages())
	assert.Equal(t, Status{State: StateConnected, IP: "192.168.1.20", Hostname: "cat-feeder-1"}, m.Status())
}

func TestStatusRequest(t *testing.T) {
	ifaces := []iface{{Name: "eth0", IPv4: "192.168.1.20", Up: true}}
	m, b := newTestMonitor(t, Options{PollInterval: time.Hour}, &ifaces)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return len(b.messages()) > 0 }, time.Second, 5*time.Millisecond)
	b.clear()

	b.mu.Lock()
	handler := b.handlers[TopicNetworkRequest]
	b.mu.Unlock()
	require.NotNil(t, handler)
	handler(TopicNetworkRequest, nil)

	assert.Equal(t, []busMsg{
		{TopicNetworkStatus, `{"state":"connected","ip":"192.168.1.20","hostname":"cat-feeder-1"}`},
	}, b.messages())

	cancel()
	assert.NoError(t, <-done)
}

func TestStatus_BeforeFirstPoll(t *testing.T) {
	var ifaces []iface
	m, _ := newTestMonitor(t, Options{}, &ifaces)
	assert.Equal(t, StateDisconnected, m.Status().State)
}

func TestHardwareAddress(t *testing.T) {
	ifaces := []iface{
		{Name: "lo", Up: true, Loopback: true, IPv4: "127.0.0.1"},
		{Name: "wlan0", HardwareAddr: "aa:bb:cc:dd:ee:ff", IPv4: "10.0.0.7", Up: true},
	}
	m, _ := newTestMonitor(t, Options{}, &ifaces)

	mac, err := m.HardwareAddress()
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", mac)

	ifaces[1].HardwareAddr = ""
	_, err = m.HardwareAddress()
	assert.ErrorIs(t, err, ErrNoHardwareAddress)

	ifaces = nil
	_, err = m.HardwareAddress()
	assert.ErrorIs(t, err, ErrNoInterface)
}

func TestHardwareAddress_ListError(t *testing.T) {
	var ifaces []iface
	m, _ := newTestMonitor(t, Options{}, &ifaces)
	boom := errors.New("netlink down")
	m.interfaces = func() ([]iface, error) { return nil, boom }

	_, err := m.HardwareAddress()
	assert.ErrorIs(t, err, boom)
}
