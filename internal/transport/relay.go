package transport

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-feeder/internal/bus"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/mqtt"
)

// Bus topics owned by the relay.
const (
	TopicSessionConfig       = "mqtt/config"
	TopicSessionStatus       = "mqtt/state"
	TopicSessionStateRequest = "mqtt/state/get"

	SessionConnected    = "connected"
	SessionDisconnected = "disconnected"

	// Originator tags messages that came in from the broker.
	Originator = "mqtt"
)

// DefaultOutbound lists the bus patterns relayed to the broker.
var DefaultOutbound = []string{
	"hass/#",
	"+/sensor/#",
	"+/switch/state",
	"+/light/state",
	"+/light/unitbrightness",
}

// DefaultInbound lists the broker patterns relayed onto the bus.
var DefaultInbound = []string{
	"hass/cmnd/#",
	"cmnd/#",
	"+/switch/set",
	"+/light/set",
}

// Bus is the local side of the relay. Satisfied by *bus.Bus.
type Bus interface {
	PublishFrom(originator, topic string, payload []byte) error
	SubscribeMessages(pattern string, handler bus.MessageHandler) error
}

// Broker is the remote side of the relay. Satisfied by *mqtt.Client.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	Subscriptions() []string
	SetOnConnect(callback func())
	SetOnDisconnect(callback func(err error))
	IsConnected() bool
	Topics() mqtt.Topics
	SessionConfig() string
	QoS() byte
}

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Options configures a Relay.
type Options struct {
	Bus    Bus
	Broker Broker

	// HostName is a second broker root accepted for inbound commands.
	// Discovery command topics are built as "<hostname>/<entity>/<domain>/set".
	HostName string

	// Outbound defaults to DefaultOutbound.
	Outbound []string

	// Inbound defaults to DefaultInbound.
	Inbound []string

	// Retain marks relayed device topics as retained. Absolute topics
	// (discovery configs) are always retained.
	Retain bool

	Logger Logger
}

// Stats holds relay counters.
type Stats struct {
	Connected bool   `json:"connected"`
	Forwarded uint64 `json:"forwarded"`
	Received  uint64 `json:"received"`
	Dropped   uint64 `json:"dropped"`

	// Subscriptions lists the broker patterns currently held.
	Subscriptions []string `json:"subscriptions"`
}

// Relay moves messages between the local bus and the MQTT broker and
// announces the broker session on the bus.
//
// On every broker connect it publishes TopicSessionConfig followed by
// TopicSessionStatus "connected"; on connection loss it publishes
// "disconnected". Messages received from the broker carry Originator and
// are never sent back out.
type Relay struct {
	bus      Bus
	broker   Broker
	topics   mqtt.Topics
	host     mqtt.Topics
	outbound []string
	inbound  []string
	retain   bool
	logger   Logger

	connected atomic.Bool
	stopped   atomic.Bool
	forwarded atomic.Uint64
	received  atomic.Uint64
	dropped   atomic.Uint64

	mu      sync.Mutex
	started bool
}

// New validates opts and creates a relay.
func New(opts Options) (*Relay, error) {
	if opts.Bus == nil {
		return nil, ErrBusRequired
	}
	if opts.Broker == nil {
		return nil, ErrBrokerRequired
	}

	outbound := opts.Outbound
	if len(outbound) == 0 {
		outbound = DefaultOutbound
	}
	inbound := opts.Inbound
	if len(inbound) == 0 {
		inbound = DefaultInbound
	}
	for _, p := range append(append([]string{}, outbound...), inbound...) {
		if strings.TrimSpace(p) == "" || strings.HasPrefix(p, "/") {
			return nil, ErrInvalidPattern
		}
	}

	topics := opts.Broker.Topics()
	r := &Relay{
		bus:      opts.Bus,
		broker:   opts.Broker,
		topics:   topics,
		outbound: outbound,
		inbound:  inbound,
		retain:   opts.Retain,
		logger:   opts.Logger,
	}
	if opts.HostName != "" && opts.HostName != topics.Prefix {
		r.host = mqtt.Topics{Prefix: opts.HostName}
	}
	return r, nil
}

// Start wires the relay into the bus and the broker. If the broker is
// already connected the session is announced immediately.
func (r *Relay) Start(_ context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	r.mu.Unlock()

	if err := r.bus.SubscribeMessages("#", r.route); err != nil {
		return err
	}
	if err := r.bus.SubscribeMessages(TopicSessionStateRequest, r.handleStateRequest); err != nil {
		return err
	}

	r.broker.SetOnConnect(r.onConnect)
	r.broker.SetOnDisconnect(r.onDisconnect)

	if r.broker.IsConnected() {
		r.onConnect()
	}
	return nil
}

// Stop drops the inbound broker subscriptions and stops forwarding in both
// directions. Call it before closing the broker client so a reconnect in the
// meantime does not restore them.
func (r *Relay) Stop() error {
	if r.stopped.Swap(true) {
		return nil
	}

	var errs []error
	for _, topic := range r.inboundTopics() {
		if err := r.broker.Unsubscribe(topic); err != nil && !errors.Is(err, mqtt.ErrNotConnected) {
			errs = append(errs, err)
		}
	}
	if r.logger != nil {
		r.logger.Info("relay stopped", "forwarded", r.forwarded.Load(), "received", r.received.Load())
	}
	return errors.Join(errs...)
}

// Stats returns a snapshot of the relay counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Connected:     r.connected.Load(),
		Forwarded:     r.forwarded.Load(),
		Received:      r.received.Load(),
		Dropped:       r.dropped.Load(),
		Subscriptions: r.broker.Subscriptions(),
	}
}

// inboundTopics returns every broker pattern the relay subscribes.
func (r *Relay) inboundTopics() []string {
	topics := make([]string, 0, 2*len(r.inbound))
	for _, pattern := range r.inbound {
		topics = append(topics, r.topics.Device(pattern))
		if r.host.Prefix != "" {
			topics = append(topics, r.host.Device(pattern))
		}
	}
	return topics
}

// onConnect runs on a broker goroutine.
func (r *Relay) onConnect() {
	if r.stopped.Load() {
		return
	}
	for _, pattern := range r.inbound {
		r.subscribe(r.topics, pattern)
		if r.host.Prefix != "" {
			r.subscribe(r.host, pattern)
		}
	}

	r.connected.Store(true)
	r.announce()

	if r.logger != nil {
		r.logger.Info("broker session up", "prefix", r.topics.Prefix)
	}
}

func (r *Relay) onDisconnect(err error) {
	r.connected.Store(false)
	r.publishLocal(TopicSessionStatus, []byte(SessionDisconnected))

	if r.logger != nil {
		r.logger.Warn("broker session lost", "error", err)
	}
}

// announce publishes the session description and status on the bus.
func (r *Relay) announce() {
	if !r.connected.Load() {
		r.publishLocal(TopicSessionStatus, []byte(SessionDisconnected))
		return
	}
	r.publishLocal(TopicSessionConfig, []byte(r.broker.SessionConfig()))
	r.publishLocal(TopicSessionStatus, []byte(SessionConnected))
}

func (r *Relay) handleStateRequest(msg bus.Message) {
	if msg.Originator == Originator {
		return
	}
	r.announce()
}

func (r *Relay) subscribe(root mqtt.Topics, pattern string) {
	err := r.broker.Subscribe(root.Device(pattern), r.broker.QoS(), func(topic string, payload []byte) error {
		relative, ok := root.Strip(topic)
		if !ok || r.stopped.Load() {
			return nil
		}
		r.received.Add(1)
		return r.bus.PublishFrom(Originator, relative, payload)
	})
	if err != nil && r.logger != nil {
		r.logger.Warn("broker subscribe failed", "pattern", root.Device(pattern), "error", err)
	}
}

func (r *Relay) publishLocal(topic string, payload []byte) {
	if err := r.bus.PublishFrom(Originator, topic, payload); err != nil && r.logger != nil {
		r.logger.Warn("bus publish failed", "topic", topic, "error", err)
	}
}

// route runs on the bus loop for every local message.
func (r *Relay) route(msg bus.Message) {
	if msg.Originator == Originator || r.stopped.Load() {
		return
	}

	retain := r.retain
	if strings.HasPrefix(msg.Topic, mqtt.AbsoluteMarker) {
		retain = true
	} else if !r.isOutbound(msg.Topic) {
		return
	}

	topic := r.topics.Resolve(msg.Topic)
	err := r.broker.Publish(topic, msg.Payload, r.broker.QoS(), retain)
	if err != nil {
		r.dropped.Add(1)
		if r.logger != nil && !errors.Is(err, mqtt.ErrNotConnected) {
			r.logger.Warn("broker publish failed", "topic", topic, "error", err)
		} else if r.logger != nil {
			r.logger.Debug("broker offline, dropping", "topic", topic)
		}
		return
	}
	r.forwarded.Add(1)
}

func (r *Relay) isOutbound(topic string) bool {
	for _, pattern := range r.outbound {
		if bus.Match(pattern, topic) {
			return true
		}
	}
	return false
}
