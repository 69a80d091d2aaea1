package main

import (
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-feeder/internal/hass"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/config"
)

// switchBus is the part of the bus the switch handlers use.
type switchBus interface {
	Publish(topic string, payload []byte) error
	Subscribe(pattern string, handler func(topic string, payload []byte)) error
}

// startSwitchEcho acknowledges switch commands by publishing the commanded
// state back on the switch's state topic, so Home Assistant sees the switch
// follow its commands. Payloads other than "on" and "off" are ignored.
func startSwitchEcho(b switchBus, switches []config.HassSwitchConfig) error {
	for _, s := range switches {
		state := hass.EntityTopic(s.Entity, hass.DomainSwitch, "state")
		command := hass.EntityTopic(s.Entity, hass.DomainSwitch, "set")

		err := b.Subscribe(command, func(_ string, payload []byte) {
			value := strings.ToLower(strings.TrimSpace(string(payload)))
			if value != "on" && value != "off" {
				return
			}
			//nolint:errcheck // Queue-full drops are counted by the bus
			b.Publish(state, []byte(value))
		})
		if err != nil {
			return fmt.Errorf("subscribing %s: %w", command, err)
		}
	}
	return nil
}
