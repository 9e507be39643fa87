// Package logger provides leveled, printf-style logging for packmule.
//
// It is a thin wrapper around zerolog so call sites stay terse:
//
//	logger.Debug("asset %s verified in %v", hash, elapsed)
//
// The level is process-wide and set once at startup from configuration.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	With().Timestamp().Logger().Level(zerolog.InfoLevel)

// SetLevel sets the minimum level to output. Valid values are DEBUG, INFO,
// WARN and ERROR (case-insensitive); anything else leaves the level unchanged.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		log = log.Level(zerolog.DebugLevel)
	case "INFO":
		log = log.Level(zerolog.InfoLevel)
	case "WARN":
		log = log.Level(zerolog.WarnLevel)
	case "ERROR":
		log = log.Level(zerolog.ErrorLevel)
	}
}

func Debug(format string, v ...any) {
	log.Debug().Msg(fmt.Sprintf(format, v...))
}

func Info(format string, v ...any) {
	log.Info().Msg(fmt.Sprintf(format, v...))
}

func Warn(format string, v ...any) {
	log.Warn().Msg(fmt.Sprintf(format, v...))
}

func Error(format string, v ...any) {
	log.Error().Msg(fmt.Sprintf(format, v...))
}
