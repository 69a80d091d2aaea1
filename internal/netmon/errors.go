package netmon

import "errors"

var (
	// ErrBusRequired is returned when Options.Bus is nil.
	ErrBusRequired = errors.New("netmon: bus is required")

	// ErrNoInterface is returned when no usable network interface is found.
	ErrNoInterface = errors.New("netmon: no usable network interface")

	// ErrNoHardwareAddress is returned when the interface has no MAC address.
	ErrNoHardwareAddress = errors.New("netmon: interface has no hardware address")
)
