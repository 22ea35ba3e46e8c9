package avstream

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// LogLevel is the severity of a log message.
type LogLevel int

const (
	LogLevelError LogLevel = iota + 1
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	case LogLevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// LogFunc receives one formatted message.
type LogFunc func(level LogLevel, msg string)

// Logger forwards messages from this package and from the codec library to
// a LogFunc. The zero value and a nil *Logger discard everything.
type Logger struct {
	fn LogFunc
}

// NewLogger returns a Logger that calls fn for every message.
func NewLogger(fn LogFunc) *Logger {
	return &Logger{fn: fn}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return &Logger{}
}

// NewZerologLogger returns a Logger writing to zl.
func NewZerologLogger(zl zerolog.Logger) *Logger {
	return NewLogger(func(level LogLevel, msg string) {
		var ev *zerolog.Event
		switch level {
		case LogLevelError:
			ev = zl.Error()
		case LogLevelWarn:
			ev = zl.Warn()
		case LogLevelInfo:
			ev = zl.Info()
		case LogLevelDebug:
			ev = zl.Debug()
		default:
			ev = zl.Trace()
		}
		ev.Msg(msg)
	})
}

func (l *Logger) log(level LogLevel, format string, args ...any) {
	if l == nil || l.fn == nil {
		return
	}
	l.fn(level, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) { l.log(LogLevelError, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LogLevelWarn, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LogLevelInfo, format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.log(LogLevelDebug, format, args...) }
func (l *Logger) Tracef(format string, args ...any) { l.log(LogLevelTrace, format, args...) }

// Codec library verbosity values (AV_LOG_*).
const (
	libLogError   = 16
	libLogWarning = 24
	libLogInfo    = 32
	libLogVerbose = 40
	libLogDebug   = 48
)

// levelFromLibrary maps a codec library log level. Debug and finer levels
// are suppressed; library info is demoted to Debug and verbose to Trace.
func levelFromLibrary(level int) (LogLevel, bool) {
	switch {
	case level >= libLogDebug:
		return 0, false
	case level >= libLogVerbose:
		return LogLevelTrace, true
	case level >= libLogInfo:
		return LogLevelDebug, true
	case level >= libLogWarning:
		return LogLevelWarn, true
	default:
		return LogLevelError, true
	}
}

// libraryMessage forwards one message emitted by the codec library.
func (l *Logger) libraryMessage(level int, msg string) {
	lvl, ok := levelFromLibrary(level)
	if !ok {
		return
	}
	msg = strings.TrimRight(msg, "\r\n")
	if msg == "" {
		return
	}
	l.log(lvl, "%s", msg)
}
