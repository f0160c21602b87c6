package sink

import (
	"log"

	"github.com/banshee-data/lidar.replay/internal/lidar"
)

var (
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures the three logging streams for the sink package.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w lidar.LogWriters) {
	opsLogger = lidar.NewLogger("[sink] ", w.Ops)
	diagLogger = lidar.NewLogger("[sink] ", w.Diag)
	traceLogger = lidar.NewLogger("[sink] ", w.Trace)
}

// opsf logs to the ops stream (actionable warnings, errors, data loss).
func opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// diagf logs to the diag stream (day-to-day diagnostics, tuning context).
func diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}

// tracef logs to the trace stream (high-frequency packet/frame telemetry).
func tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
