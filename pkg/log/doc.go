// Package log provides the structured logging facade used by halport backends.
//
// Backends never talk to a concrete logging library. They accept a Logger and
// tag their messages with a component name:
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//	kvLog := log.Component(logger, "kvstore")
//	kvLog.Info("store ready", log.Int("keys", n))
//
// A no-op logger is the default for library use and tests:
//
//	logger := log.NewNoopLogger()
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
