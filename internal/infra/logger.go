package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the service logger. Production emits JSON at info level;
// development switches to the console writer at debug level so local runs
// stay readable.
func NewLogger(appEnv string) zerolog.Logger {
	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if appEnv == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Logger aliases zerolog.Logger so packages can accept the logging contract
// without importing the third-party module themselves.
type Logger = zerolog.Logger
