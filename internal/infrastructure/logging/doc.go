// Package logging provides structured logging for the feeder.
//
// It wraps log/slog with JSON or text output, level filtering and the
// default fields service=feeder and version on every entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	hassLogger := logger.Component("hass")
//	hassLogger.Info("discovery published", "entities", 4)
//
// Never log secrets, tokens or broker passwords.
package logging
