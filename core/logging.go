package core

// Logger is any leveled logger the app can report through.
// Implementations may inspect trailing args for context values
// (errors, tenant/school tags, maps).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
