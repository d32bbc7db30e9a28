// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *Logger and derive a named child with For, so every line
// carries the component that produced it:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	bridgeLog := logger.For("bridge")
//	bridgeLog.Warn("Discarding malformed constants", zap.Error(err))
package logging
