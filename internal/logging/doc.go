// Package logging assembles structured slog loggers and formatting helpers
// used across the Digiposte client.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipe commands and CLI calls
// are tagged with their correlation ID and action. Output defaults to stderr:
// stdout is reserved for command results and pipe replies. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
