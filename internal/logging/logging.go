// Package logging wires up zerolog the way GitGrove's cli wires it: a
// console writer for interactive terminals, a level controlled by an
// environment variable, and package-level helpers so call sites just write
// log.Info().Msg(...).
package logging

import (
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger from HARMONIA_LOG_LEVEL and
// HARMONIA_NO_COLOR. Safe to call once at process startup.
func Init() {
	level := levelFromEnv(os.Getenv("HARMONIA_LOG_LEVEL"))
	zerolog.SetGlobalLevel(level)

	noColor := os.Getenv("HARMONIA_NO_COLOR") != "" || !isatty.IsTerminal(os.Stderr.Fd())

	writer := zerolog.ConsoleWriter{
		Out:        colorable.NewColorableStderr(),
		NoColor:    noColor,
		TimeFormat: "15:04:05",
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
}

func levelFromEnv(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "silent", "off":
		return zerolog.Disabled
	case "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}
