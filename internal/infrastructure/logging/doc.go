// Package logging provides structured logging for the WiZ platform.
//
// It wraps log/slog so that every component logs with the same handler,
// level and default fields (service, version).
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
//	logger.Info("discovered device", "device_id", id)
//
// Device context is attached with the descriptor's LogArgs so that every line
// about a device carries the same keys.
package logging
