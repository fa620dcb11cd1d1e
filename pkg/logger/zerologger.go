package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

type ZeroLogger struct {
	logger zerolog.Logger
}

// NewZeroLog builds the default stdout logger. Level follows the app
// environment: production logs Info and above, everything else Debug.
func NewZeroLog(env, component string) *ZeroLogger {
	return NewWithWriter(env, component, os.Stdout)
}

func NewWithWriter(env, component string, w io.Writer) *ZeroLogger {
	logger := zerolog.New(w).With().Timestamp().Str("component", component).Logger()

	switch env {
	case "production":
		logger = logger.Level(zerolog.InfoLevel)
	default:
		logger = logger.Level(zerolog.DebugLevel)
	}

	return &ZeroLogger{logger: logger}
}

// convert flattens []Field into the key/value list zerolog expects
func convert(fields []Field) []any {
	items := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		items = append(items, f.Key, f.Value)
	}
	return items
}

func (l *ZeroLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug().Fields(convert(fields)).Msg(msg)
}

func (l *ZeroLogger) Info(msg string, fields ...Field) {
	l.logger.Info().Fields(convert(fields)).Msg(msg)
}

func (l *ZeroLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn().Fields(convert(fields)).Msg(msg)
}

func (l *ZeroLogger) Error(msg string, fields ...Field) {
	l.logger.Error().Fields(convert(fields)).Msg(msg)
}
