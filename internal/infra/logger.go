package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs a zerolog.Logger for the named component. Development
// builds log at debug level through the console writer.
func NewLogger(appEnv, component string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	var out io.Writer = os.Stdout
	if appEnv == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if component != "" {
		ctx = ctx.Str("component", component)
	}
	return ctx.Logger()
}

// NopLogger returns a logger that discards everything; handy for tests and optional wiring.
func NopLogger() Logger {
	return zerolog.Nop()
}

// Logger aliases the zerolog.Logger so callers outside the infra package can
// depend on the logging contract without importing the third-party module
// directly.
type Logger = zerolog.Logger

// GooseLogger adapts a zerolog logger to the goose migration logger contract.
type GooseLogger struct {
	L Logger
}

func (g GooseLogger) Printf(format string, v ...any) {
	g.L.Info().Msgf(format, v...)
}

func (g GooseLogger) Fatalf(format string, v ...any) {
	g.L.Fatal().Msgf(format, v...)
}
