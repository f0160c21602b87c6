// Package sink provides FrameSink implementations for replayed frames.
package sink

import (
	"errors"
	"fmt"

	"github.com/banshee-data/lidar.replay/internal/lidar/replay"
)

// Tee delivers every frame to each sink in order. All sinks see the frame
// even if an earlier one fails; the failures are joined.
type Tee []replay.FrameSink

// Deliver implements replay.FrameSink.
func (t Tee) Deliver(frame *replay.Frame) error {
	var errs []error
	for i, s := range t {
		if err := s.Deliver(frame); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Discard accepts frames and does nothing with them.
var Discard replay.FrameSink = replay.SinkFunc(func(*replay.Frame) error { return nil })

// Logger logs a one-line summary of every frame to the diag stream.
var Logger replay.FrameSink = replay.SinkFunc(func(f *replay.Frame) error {
	diagf("frame %d: %s, %d points, ts=%dus", f.Sequence, f.Model, len(f.Cloud), f.TimestampUs)
	return nil
})
