// Package netmon reports the device's network state on the bus.
//
// It publishes "net/network" ({"state","ip","hostname"}) whenever the
// sampled state changes and on request via "net/network/get", and
// "net/rssi" ({"rssi":dBm}) on every poll of a wireless interface, read
// from /proc/net/wireless. HardwareAddress supplies the MAC address the
// discovery bridge uses for unique ids.
package netmon
