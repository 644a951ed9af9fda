// Package log exposes the logging types used by syncfiles so that embedding
// applications can build a Logger without importing internal packages.
//
// # Usage
//
// Wrap an existing zerolog logger:
//
//	logger := log.NewZerologLogger(zerolog.New(os.Stderr))
//
// Or write human-readable lines at a given level:
//
//	logger := log.NewConsoleLogger(os.Stderr, "debug")
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with your existing
// logging infrastructure:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
package log
