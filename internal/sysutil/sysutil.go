// Package sysutil holds process-level helpers: global logger setup and small
// string utilities used while wiring the server.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions selects the level and sinks of the global logger.
type LogOptions struct {
	Level  string
	Pretty bool   // human-readable console output instead of JSON
	File   string // optional path of a size-rotated log file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogger configures the global zerolog logger from opts. The returned
// closer releases the rotated log file, if any.
func SetupLogger(opts LogOptions) io.Closer {
	SetLogLevel(opts.Level)
	w, closer := newLogWriter(opts, os.Stdout)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return closer
}

// newLogWriter builds the sink for opts. Console output always goes to out;
// a configured file receives JSON lines and is rotated by lumberjack.
func newLogWriter(opts LogOptions, out io.Writer) (io.Writer, io.Closer) {
	var console io.Writer = out
	if opts.Pretty {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	path := strings.TrimSpace(opts.File)
	if path == "" {
		return console, nopCloser{}
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}
	return zerolog.MultiLevelWriter(console, file), file
}

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// FirstNonEmpty returns the first non-empty string from a variadic list.
// If all values are empty, it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
