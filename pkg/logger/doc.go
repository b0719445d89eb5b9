// Package logger provides a small factory over log/slog with JSON output
// for production and text output for development, plus shared attribute
// helpers so log keys stay consistent across the codebase.
package logger
