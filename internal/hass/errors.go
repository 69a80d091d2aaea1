package hass

import "errors"

// Sentinel errors returned by bridge construction and registration.
var (
	// ErrBusRequired is returned when Options.Bus is nil.
	ErrBusRequired = errors.New("hass: bus is required")

	// ErrDeviceNameRequired is returned when Options.Device.Name is empty.
	ErrDeviceNameRequired = errors.New("hass: device name is required")

	// ErrEntityNameRequired is returned when an entity is registered without a name.
	ErrEntityNameRequired = errors.New("hass: entity name is required")

	// ErrGroupNameRequired is returned when an attribute group has no name.
	ErrGroupNameRequired = errors.New("hass: attribute group name is required")

	// ErrValueNameRequired is returned when a sensor has no value name.
	ErrValueNameRequired = errors.New("hass: sensor value name is required")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("hass: bridge already started")
)
