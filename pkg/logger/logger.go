package logger

// Field is a structured log attribute.
type Field struct {
	Key   string
	Value any
}

// Logger is the logging abstraction used across the SDK so that packages
// never depend on a concrete logging backend.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Nop discards everything. Useful as a default and in tests.
type Nop struct{}

func (Nop) Debug(string, ...Field) {}
func (Nop) Info(string, ...Field)  {}
func (Nop) Warn(string, ...Field)  {}
func (Nop) Error(string, ...Field) {}
