// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Component loggers are derived with Named, and per-instance context is
// attached with WithApp so every lifecycle log line carries the instance id.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Named("registry").Info("reconciled", zap.Int("loaded", n))
package logging
