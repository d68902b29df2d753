// Package logging is the zerolog setup shared by the bot's subsystems.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl zerolog.Logger
}

// New returns a root logger. A nil w writes human readable lines to stderr.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	}
	return &Logger{zl: zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()}
}

func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Sub tags entries with the component that wrote them.
func (l *Logger) Sub(subsystem string) *Logger {
	return &Logger{zl: l.zl.With().Str("subsystem", subsystem).Logger()}
}

// Conversation tags entries with the chat channel they concern.
func (l *Logger) Conversation(id string) *Logger {
	return &Logger{zl: l.zl.With().Str("conversation", id).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// parseLevel accepts zerolog level names in any case plus "silent" and
// "off". Anything else means info.
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return zerolog.InfoLevel
	case "silent", "off":
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
