package main

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-feeder/internal/bus"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/logging"
)

// Bus topics of the feeder hardware.
const (
	topicUserButton   = "user/switch/state"
	topicFeedButton   = "feed/switch/state"
	topicFeederState  = "feeder/switch/state"
	topicFeederResult = "feeder/switch/result"
	topicFeederSet    = "feeder/switch/set"
	topicLEDSet       = "led/light/set"
	topicLEDMode      = "led/light/mode"
	topicAppCommands  = "cmnd/#"
	topicRestart      = "cmnd/restart"
)

const (
	// buttonTimeout is the quiet time after the last user button press
	// before the counted presses are sent to the feeder.
	buttonTimeout = time.Second

	// appTickInterval is how often pending presses are checked.
	appTickInterval = 50 * time.Millisecond

	// maxFeedIntervals caps a single button-driven feed.
	maxFeedIntervals = 16

	// feederResultOK is the result the motor driver reports after a clean run.
	feederResultOK = "OK"

	ledPassive = "passive"
	ledBlink   = "blink,200"
)

// appBus is the part of the bus the feeder application uses.
type appBus interface {
	Publish(topic string, payload []byte) error
	Subscribe(pattern string, handler func(topic string, payload []byte)) error
	Do(ctx context.Context, fn func()) error
}

// feederApp is the cat feeder's own behaviour on top of the hardware topics:
//
//   - each "on" from the user button adds one feed interval; a second after
//     the last press the count goes to the feeder as "feeder/switch/set"
//   - the feed button starts and stops the feeder directly
//   - the LED follows the feeder's state and blinks when a run fails
//   - "cmnd/restart" restarts the service
//
// Handlers and the press counter run on the bus loop.
type feederApp struct {
	bus     appBus
	restart func()
	logger  *logging.Logger

	now      func() time.Time
	presses  int
	lastPush time.Time
}

func newFeederApp(b appBus, restart func(), logger *logging.Logger) *feederApp {
	return &feederApp{
		bus:     b,
		restart: restart,
		logger:  logger,
		now:     time.Now,
	}
}

// Start subscribes the application handlers.
func (a *feederApp) Start() error {
	handlers := map[string]func(topic string, payload []byte){
		topicUserButton:   a.handleUserButton,
		topicFeedButton:   a.handleFeedButton,
		topicFeederState:  a.handleFeederState,
		topicFeederResult: a.handleFeederResult,
		topicAppCommands:  a.handleCommand,
	}
	for pattern, h := range handlers {
		if err := a.bus.Subscribe(pattern, h); err != nil {
			return err
		}
	}
	return nil
}

// Run flushes counted button presses until ctx is cancelled.
func (a *feederApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(appTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := a.bus.Do(ctx, a.flushPresses)
			if errors.Is(err, bus.ErrStopped) || ctx.Err() != nil {
				return nil
			}
			if err != nil {
				a.logger.Warn("button check failed", "error", err)
			}
		}
	}
}

func (a *feederApp) handleUserButton(_ string, payload []byte) {
	if string(payload) != "on" {
		return
	}
	if a.presses < maxFeedIntervals {
		a.presses++
	}
	a.lastPush = a.now()
}

// flushPresses sends the counted presses once the button has been idle.
func (a *feederApp) flushPresses() {
	if a.presses == 0 || a.now().Sub(a.lastPush) <= buttonTimeout {
		return
	}
	count := a.presses
	a.presses = 0
	a.lastPush = time.Time{}

	a.logger.Info("feeding", "intervals", count)
	a.publish(topicFeederSet, strconv.Itoa(count))
}

func (a *feederApp) handleFeedButton(_ string, payload []byte) {
	switch string(payload) {
	case "on", "off":
		a.publish(topicFeederSet, string(payload))
	}
}

func (a *feederApp) handleFeederState(_ string, payload []byte) {
	a.publish(topicLEDMode, ledPassive)
	if string(payload) == "on" {
		a.publish(topicLEDSet, "on")
	} else {
		a.publish(topicLEDSet, "off")
	}
}

func (a *feederApp) handleFeederResult(_ string, payload []byte) {
	if strings.TrimSpace(string(payload)) == feederResultOK {
		return
	}
	a.logger.Warn("feeder run failed", "result", string(payload))
	a.publish(topicLEDMode, ledBlink)
}

func (a *feederApp) handleCommand(topic string, _ []byte) {
	if topic != topicRestart {
		return
	}
	a.logger.Warn("restart requested")
	a.restart()
}

func (a *feederApp) publish(topic, payload string) {
	if err := a.bus.Publish(topic, []byte(payload)); err != nil {
		a.logger.Warn("bus publish failed", "topic", topic, "error", err)
	}
}
