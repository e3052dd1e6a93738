package testutil

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestLogger returns a logger that discards everything.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(io.Discard)
}

// NewTestLoggerWithOutput returns a debug logger printing through t.Log, so
// the SQL a store ran shows up next to a failing assertion.
func NewTestLoggerWithOutput(t *testing.T) zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: tWriter{t}, NoColor: true, TimeFormat: "15:04:05.000"}
	return zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// NewCapturingLogger returns a logger writing JSON lines at warn level and
// above into the returned buffer.
func NewCapturingLogger(t *testing.T) (zerolog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return zerolog.New(&buf).Level(zerolog.WarnLevel), &buf
}

type tWriter struct {
	t *testing.T
}

func (w tWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
