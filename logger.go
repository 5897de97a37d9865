package edtrt

// Logger defines the interface for runtime logging. The runtime uses
// structured logging with key-value pairs so every subsystem, the
// event engine, and the task dispatcher emit consistent, parseable
// output regardless of which backend an embedding application wires
// in.
//
// The Logger interface uses variadic arguments in key-value pairs:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// This is compatible with slog, logrus, zap and others. NewZapLogger
// provides the default concrete implementation.
type Logger interface {
	// Info logs a normal runtime event: runlevel transitions, task
	// dispatch, subsystem bring-up.
	Info(msg string, args ...any)

	// Error logs an error that doesn't necessarily abort the runtime
	// but should be noted (e.g. an observer callback failing).
	Error(msg string, args ...any)

	// Warn logs an unusual but non-fatal condition.
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostic information, typically disabled
	// in production (slot-queue contention retries, dependence
	// bindings).
	Debug(msg string, args ...any)
}
