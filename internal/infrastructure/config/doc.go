// Package config handles loading and validating the feeder configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with FEEDER_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// The hass section declares the attribute groups, sensors, lights and
// switches the bridge announces to Home Assistant, so a new appliance
// variant needs no code change.
//
// Security Considerations:
//   - Broker passwords and the JWT secret should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.Name)
package config
