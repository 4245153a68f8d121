// Package logger provides a structured logging interface for the profile
// viewer.
//
// It wraps the zerolog library behind a small Logger interface with support
// for multiple log levels, structured fields, pretty console output, optional
// file output, and a global instance for easy access.
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	err := logger.Initialize(cfg)
//
//	logger.GetLogger().Info("server started")
//	logger.GetLogger().WithField("username", "jane_doe").Info("profile looked up")
//
// Tests can use NewTestLogger to capture messages or NewNopLogger to discard
// them.
package logger
