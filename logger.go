package beans

// Logger defines the interface for container logging.
// The container uses structured logging with key-value pairs so that
// registration, scanning, creation and teardown all produce consistent,
// parseable output.
//
// The Logger interface uses variadic arguments in key-value pairs:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// Adapters for log/slog and go.uber.org/zap live in the logging package.
type Logger interface {
	// Info logs an informational message, e.g. scan summaries.
	Info(msg string, args ...any)

	// Error logs an error that did not stop the container, e.g. a failing
	// pre-destroy hook during teardown.
	Error(msg string, args ...any)

	// Warn logs an unusual condition, e.g. a component skipped by the scanner.
	//
	// Example:
	//   logger.Warn("Skipping component", "component", "pkg.Type", "error", err)
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostics such as each created bean.
	Debug(msg string, args ...any)
}
