// Package logger initializes and configures the global zerolog instance.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds configuration options for the application logger.
type Config struct {
	Level  string `long:"level" env:"LEVEL" description:"Log level (trace, debug, info, warn, error)" default:"info" json:"level"`
	Format string `long:"format" env:"FORMAT" description:"Log format (console or json)" default:"console" json:"format"`
	Output string `long:"output" env:"OUTPUT" description:"Log output (stdout, stderr or file path)" default:"stderr" json:"output"`
}

// Setup initializes the global logger and the default context logger used by log.Ctx.
// The returned closer releases the log file, it is a no-op for stdout and stderr.
func Setup(cfg Config) io.Closer {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	writer, closer := openOutput(cfg.Output)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	} else {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: time.RFC3339,
		}

		// Colors only for terminals and when NO_COLOR is unset
		if f, ok := writer.(*os.File); ok {
			if os.Getenv("NO_COLOR") != "" || !isTerminal(f) {
				consoleWriter.NoColor = true
			}
		}

		log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger

	return closer
}

func openOutput(output string) (io.Writer, io.Closer) {
	switch output {
	case "stdout":
		return os.Stdout, nopCloser{}
	case "", "stderr":
		return os.Stderr, nopCloser{}
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		tempLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		tempLogger.Error().Err(err).Str("path", output).Msg("Failed to open log file, falling back to stderr")
		return os.Stderr, nopCloser{}
	}

	return file, file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// isTerminal checks if the provided file descriptor refers to a character device (terminal).
func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}

	return (stat.Mode() & os.ModeCharDevice) != 0
}
