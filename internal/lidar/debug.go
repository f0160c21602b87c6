package lidar

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// LogWriters holds the io.Writers for each logging stream.
//
// Every lidar subpackage exposes SetLogWriters(LogWriters) and logs through
// three streams:
//   - Ops: actionable warnings, errors, lifecycle events
//   - Diag: day-to-day diagnostics, tuning context
//   - Trace: high-frequency packet/frame telemetry
//
// A nil writer disables that stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// Level names accepted by NewLogWriters.
const (
	LevelOff   = "off"
	LevelOps   = "ops"
	LevelDiag  = "diag"
	LevelTrace = "trace"
)

// NewLogWriters routes every stream up to and including level to w.
func NewLogWriters(level string, w io.Writer) (LogWriters, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelOff:
		return LogWriters{}, nil
	case LevelOps, "":
		return LogWriters{Ops: w}, nil
	case LevelDiag:
		return LogWriters{Ops: w, Diag: w}, nil
	case LevelTrace:
		return LogWriters{Ops: w, Diag: w, Trace: w}, nil
	default:
		return LogWriters{}, fmt.Errorf("unknown log level %q (want off, ops, diag or trace)", level)
	}
}

// NewLogger creates a *log.Logger for a given writer, or returns nil if w is nil.
func NewLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}
