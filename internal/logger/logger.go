package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls the process logger.
type Config struct {
	// Dev switches to human readable console output at debug level with stack traces.
	Dev bool

	// Level overrides the default level (info, or debug when Dev is set).
	Level string

	// Out defaults to stderr so stdout stays free for command output.
	Out io.Writer
}

// Setup builds the process logger and installs it as both the global logger used by the
// store packages and the zerolog default context logger, so every log line honours
// the configured level and output.
func Setup(cfg Config) (zerolog.Logger, error) {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if cfg.Dev {
		level = zerolog.DebugLevel
	}
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()

	if cfg.Dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	return logger, nil
}
