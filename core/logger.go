package core

// Logger is implemented by services/logger.
// args may contain errors, context maps and the acting user (see logsvc.RollbarLogger).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
