package bus

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize bounds the number of pending messages.
const DefaultQueueSize = 1024

// LocalOriginator tags messages published without an explicit origin.
const LocalOriginator = "local"

// Message is one bus publication.
type Message struct {
	Topic      string
	Payload    []byte
	Originator string
}

// Handler receives the topic and payload of a matching message.
type Handler func(topic string, payload []byte)

// MessageHandler receives the full message including its originator.
type MessageHandler func(msg Message)

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options configures a Bus.
type Options struct {
	// QueueSize defaults to DefaultQueueSize.
	QueueSize int

	// Logger is optional.
	Logger Logger
}

// Stats holds bus counters.
type Stats struct {
	Published     uint64 `json:"published"`
	Delivered     uint64 `json:"delivered"`
	Dropped       uint64 `json:"dropped"`
	Pending       int    `json:"pending"`
	Subscriptions int    `json:"subscriptions"`
}

// Bus is a cooperative publish/subscribe dispatcher.
//
// Publish and Subscribe are safe for concurrent use. Messages are delivered
// by the single goroutine running Run, in publication order, one handler at
// a time. A handler may publish; the new message is queued behind the ones
// already pending and is delivered after the handler returns.
type Bus struct {
	mu       sync.Mutex
	pending  []item
	subs     []subscription
	maxQueue int
	wake     chan struct{}
	done     chan struct{}

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64

	logger Logger
}

type subscription struct {
	pattern string
	handler MessageHandler
}

// item is either a message or a function to run on the loop.
type item struct {
	msg      Message
	fn       func()
	finished chan struct{}
}

// New creates a bus. Call Run to start delivering.
func New(opts Options) *Bus {
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Bus{
		maxQueue: size,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   opts.Logger,
	}
}

// Publish queues a message from the local originator.
func (b *Bus) Publish(topic string, payload []byte) error {
	return b.PublishFrom(LocalOriginator, topic, payload)
}

// PublishFrom queues a message tagged with its originator.
func (b *Bus) PublishFrom(originator, topic string, payload []byte) error {
	if !validTopic(topic) {
		return ErrInvalidTopic
	}
	msg := Message{Topic: topic, Payload: payload, Originator: originator}
	if err := b.enqueue(item{msg: msg}); err != nil {
		b.dropped.Add(1)
		return err
	}
	b.published.Add(1)
	return nil
}

// Subscribe registers handler for pattern.
func (b *Bus) Subscribe(pattern string, handler func(topic string, payload []byte)) error {
	if handler == nil {
		return ErrNilHandler
	}
	return b.SubscribeMessages(pattern, func(msg Message) {
		handler(msg.Topic, msg.Payload)
	})
}

// SubscribeMessages registers a handler that also sees the originator.
func (b *Bus) SubscribeMessages(pattern string, handler MessageHandler) error {
	if !ValidPattern(pattern) {
		return ErrInvalidPattern
	}
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	b.subs = append(b.subs, subscription{pattern: pattern, handler: handler})
	b.mu.Unlock()
	return nil
}

// Do runs fn on the dispatch loop and waits for it to finish. Use it to read
// or change state owned by handlers from another goroutine. It must not be
// called from a handler.
func (b *Bus) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := b.enqueue(item{fn: fn, finished: finished}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-b.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run delivers messages until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
		}

		for {
			next, ok := b.pop()
			if !ok {
				break
			}
			b.process(next)

			if ctx.Err() != nil {
				return
			}
		}
	}
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	pending, subs := len(b.pending), len(b.subs)
	b.mu.Unlock()

	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		Dropped:       b.dropped.Load(),
		Pending:       pending,
		Subscriptions: subs,
	}
}

func (b *Bus) enqueue(it item) error {
	b.mu.Lock()
	if len(b.pending) >= b.maxQueue {
		b.mu.Unlock()
		if b.logger != nil {
			b.logger.Warn("bus queue full, dropping", "topic", it.msg.Topic)
		}
		return ErrQueueFull
	}
	b.pending = append(b.pending, it)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

func (b *Bus) pop() (item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return item{}, false
	}
	next := b.pending[0]
	b.pending[0] = item{}
	b.pending = b.pending[1:]
	return next, true
}

func (b *Bus) process(it item) {
	if it.fn != nil {
		b.call("do", it.fn)
		close(it.finished)
		return
	}

	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		if !Match(s.pattern, it.msg.Topic) {
			continue
		}
		handler := s.handler
		b.call(it.msg.Topic, func() { handler(it.msg) })
		b.delivered.Add(1)
	}
}

// call runs fn, recovering from panics so one handler cannot stop the loop.
func (b *Bus) call(topic string, fn func()) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error("bus handler panic recovered",
				"topic", topic,
				"panic", r,
			)
		}
	}()
	fn()
}
