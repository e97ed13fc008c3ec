package ports

// Logger is the logging interface used across the application.
type Logger interface {
	// Debug logs a verbose diagnostic message.
	Debug(msg string)
	// Info logs an informational message.
	Info(msg string)
	// Warn logs a warning message.
	Warn(msg string)
	// Error logs an error with its cause chain.
	Error(err error)
}
