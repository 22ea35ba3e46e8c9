package avstream

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level LogLevel
	msg   string
}

func recordingLogger() (*Logger, *[]logEntry) {
	var entries []logEntry
	return NewLogger(func(level LogLevel, msg string) {
		entries = append(entries, logEntry{level, msg})
	}), &entries
}

func TestLevelFromLibrary(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  LogLevel
		ok    bool
	}{
		{"panic", 0, LogLevelError, true},
		{"fatal", 8, LogLevelError, true},
		{"error", libLogError, LogLevelError, true},
		{"warning", libLogWarning, LogLevelWarn, true},
		{"info", libLogInfo, LogLevelDebug, true},
		{"verbose", libLogVerbose, LogLevelTrace, true},
		{"debug", libLogDebug, 0, false},
		{"trace", 56, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := levelFromLibrary(tt.level)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_LibraryMessage(t *testing.T) {
	l, entries := recordingLogger()

	l.libraryMessage(libLogWarning, "Estimating duration from bitrate\n")
	l.libraryMessage(libLogDebug, "suppressed\n")
	l.libraryMessage(libLogInfo, "\n")

	require.Len(t, *entries, 1)
	assert.Equal(t, logEntry{LogLevelWarn, "Estimating duration from bitrate"}, (*entries)[0])
}

func TestLogger_Nil(t *testing.T) {
	var l *Logger
	l.Errorf("no panic %d", 1)
	NopLogger().Tracef("discarded")
}

func TestNewZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.TraceLevel)
	l := NewZerologLogger(zl)

	l.Warnf("sample rate %d unsupported", 11025)
	l.Tracef("packet")

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"message":"sample rate 11025 unsupported"`)
	assert.Contains(t, out, `"level":"trace"`)
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "error", LogLevelError.String())
	assert.Equal(t, "trace", LogLevelTrace.String())
	assert.Equal(t, "unknown", LogLevel(0).String())
}
