// Package settings persists small key/value settings in SQLite.
//
// The Home Assistant bridge stores its auto-discovery flag here under
// "hass/autodiscovery" so the choice survives a restart.
package settings
