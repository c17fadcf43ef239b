package core

// Logger is the diagnostic channel.
// expected args: error, map[string]interface{}, or the logged in parent (see services/logger).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Notifier presents one-shot success & error messages (toasts) to the parent.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}
