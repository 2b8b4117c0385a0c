package core

// Logger is any service that can log messages & errors.
// args may contain errors, maps of extra data and at most one Scope identifying the person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
