// Package replay paces the delivery of reconstructed frames.
//
// A Scheduler is single-threaded and pull-based. Each cycle it clears the
// inactive one of two frame buffers, asks the Sensor to fill it, hands the
// result to the FrameSink and sleeps for the rest of the frame period scaled
// by the replay speed. A failed read produces no frame and the loop carries
// on; the stop signal and the context are checked once per cycle, never
// during a decode.
package replay
