package app

import (
	"io"

	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
)

// LogSink is an opaque append-only text sink passed into lifecycle
// operations. Implementations must tolerate concurrent appends.
type LogSink interface {
	Append(line string)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Append(string) {}

// WriterSink appends lines to an io.Writer, one per line.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Append(line string) {
	io.WriteString(s.W, line+"\n") //nolint:errcheck // sink is best-effort
}

// LoggerSink forwards lines to a structured logger at info level.
type LoggerSink struct {
	Log *logging.Logger
}

func (s LoggerSink) Append(line string) {
	s.Log.Info(line)
}

// MultiSink fans one stream of lines out to several sinks.
type MultiSink []LogSink

func (m MultiSink) Append(line string) {
	for _, s := range m {
		s.Append(line)
	}
}
