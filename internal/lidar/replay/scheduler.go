package replay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/lidar.replay/internal/lidar/geometry"
	"github.com/banshee-data/lidar.replay/internal/lidar/velodyne"
	"github.com/banshee-data/lidar.replay/internal/timeutil"
)

// State of the scheduler loop.
type State int32

const (
	// StateIdle: no scan has been read successfully yet.
	StateIdle State = iota
	// StateStreaming: at least one frame has been delivered.
	StateStreaming
)

func (s State) String() string {
	if s == StateStreaming {
		return "streaming"
	}
	return "idle"
}

// Frame is one reconstructed scan handed to a FrameSink.
type Frame struct {
	Cloud       geometry.PointCloud
	TimestampUs uint64
	Model       velodyne.HardwareModel
	Sequence    uint64 // 1-based count of delivered frames
}

// reset empties the frame while keeping the cloud's capacity.
func (f *Frame) reset() {
	f.Cloud = f.Cloud[:0]
	f.TimestampUs = 0
	f.Model = velodyne.ModelUnknown
	f.Sequence = 0
}

// Sensor fills a frame with the next scan. A returned error means no frame
// was produced this cycle.
type Sensor interface {
	ReadNextScan(frame *Frame) error
}

// FrameSink receives completed frames. The frame is reused two cycles later,
// so a sink must finish with it, or copy what it needs, before Deliver
// returns.
type FrameSink interface {
	Deliver(frame *Frame) error
}

// SinkFunc adapts a function to FrameSink.
type SinkFunc func(frame *Frame) error

// Deliver calls f(frame).
func (f SinkFunc) Deliver(frame *Frame) error { return f(frame) }

// StopSignal is consulted once per cycle.
type StopSignal interface {
	ShouldStop() bool
}

// StopFunc adapts a function to StopSignal.
type StopFunc func() bool

// ShouldStop calls f.
func (f StopFunc) ShouldStop() bool { return f() }

// DefaultTargetFrameDuration is the nominal period of one cycle.
const DefaultTargetFrameDuration = 33 * time.Millisecond

// MinReplaySpeed is the lower bound applied to the replay speed.
const MinReplaySpeed = 0.01

// ClampReplaySpeed raises speeds below MinReplaySpeed, including NaN, to
// MinReplaySpeed.
func ClampReplaySpeed(speed float64) float64 {
	if !(speed >= MinReplaySpeed) {
		return MinReplaySpeed
	}
	return speed
}

// ErrExhausted is returned by Run when StopOnExhausted is set and the sensor
// stops producing frames.
var ErrExhausted = errors.New("sensor exhausted")

// Config configures a Scheduler.
type Config struct {
	TargetFrameDuration time.Duration
	ReplaySpeed         float64
	// StopOnExhausted ends Run once the sensor reports exhaustion instead of
	// idling until the stop signal fires.
	StopOnExhausted bool
	// MaxFrames ends Run after this many delivered frames; zero is unlimited.
	MaxFrames uint64
	Clock     timeutil.Clock
}

// DefaultConfig returns a real-time configuration.
func DefaultConfig() Config {
	return Config{
		TargetFrameDuration: DefaultTargetFrameDuration,
		ReplaySpeed:         1,
		Clock:               timeutil.RealClock{},
	}
}

// Stats summarise a scheduler's cycles.
type Stats struct {
	Cycles    uint64
	Frames    uint64
	Misses    uint64 // cycles that produced no frame
	SinkFails uint64
}

// Scheduler drives the pull loop: read a scan into the inactive buffer,
// deliver it, then sleep out the remainder of the frame period.
type Scheduler struct {
	sensor Sensor
	sink   FrameSink
	stop   StopSignal

	target          time.Duration
	speedBits       atomic.Uint64
	stopOnExhausted bool
	maxFrames       uint64
	clock           timeutil.Clock

	buffers [2]Frame
	active  int
	state   atomic.Int32

	mu    sync.Mutex
	stats Stats
}

// NewScheduler creates a scheduler. stop may be nil, in which case only
// context cancellation ends Run.
func NewScheduler(sensor Sensor, sink FrameSink, stop StopSignal, cfg Config) (*Scheduler, error) {
	if sensor == nil {
		return nil, fmt.Errorf("replay: sensor is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("replay: sink is required")
	}
	if cfg.TargetFrameDuration <= 0 {
		cfg.TargetFrameDuration = DefaultTargetFrameDuration
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	s := &Scheduler{
		sensor:          sensor,
		sink:            sink,
		stop:            stop,
		target:          cfg.TargetFrameDuration,
		stopOnExhausted: cfg.StopOnExhausted,
		maxFrames:       cfg.MaxFrames,
		clock:           cfg.Clock,
	}
	s.SetReplaySpeed(cfg.ReplaySpeed)
	return s, nil
}

// SetReplaySpeed changes the playback rate. Values below MinReplaySpeed,
// including NaN, are clamped. It is safe to call while Run is active.
func (s *Scheduler) SetReplaySpeed(speed float64) {
	s.speedBits.Store(math.Float64bits(ClampReplaySpeed(speed)))
}

// ReplaySpeed returns the current playback rate.
func (s *Scheduler) ReplaySpeed() float64 {
	return math.Float64frombits(s.speedBits.Load())
}

// State returns the loop state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Stats returns a snapshot of the cycle counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Period returns the current sleep budget per cycle.
func (s *Scheduler) Period() time.Duration {
	return time.Duration(float64(s.target) / s.ReplaySpeed())
}

// Run executes cycles until the stop signal fires (returns nil), ctx is
// cancelled (returns ctx.Err()), MaxFrames is reached (returns nil) or, with
// StopOnExhausted, the sensor is exhausted (returns ErrExhausted). Sensor
// and sink failures are logged and do not end the loop otherwise.
func (s *Scheduler) Run(ctx context.Context) error {
	exhaustedLogged := false
	opsf("replay started: period %v at %.2fx", s.target, s.ReplaySpeed())

	for {
		if err := ctx.Err(); err != nil {
			opsf("replay cancelled after %+v", s.Stats())
			return err
		}
		if s.stop != nil && s.stop.ShouldStop() {
			opsf("replay stopped after %+v", s.Stats())
			return nil
		}

		start := s.clock.Now()
		produced, err := s.cycle()
		if err != nil {
			if !exhaustedLogged {
				opsf("no frame produced: %v", err)
				exhaustedLogged = true
			} else {
				tracef("no frame produced: %v", err)
			}
			if s.stopOnExhausted && errors.Is(err, velodyne.ErrScanExhausted) {
				return fmt.Errorf("%w: %w", ErrExhausted, err)
			}
		} else if produced {
			exhaustedLogged = false
		}

		if s.maxFrames > 0 && s.Stats().Frames >= s.maxFrames {
			opsf("replay reached %d frames", s.maxFrames)
			return nil
		}

		elapsed := s.clock.Since(start)
		sleep := s.Period() - elapsed
		if sleep < 0 {
			sleep = 0
		}
		tracef("cycle took %v, sleeping %v", elapsed, sleep)
		s.clock.Sleep(sleep)
	}
}

// cycle runs one read/deliver step on the inactive buffer and then swaps
// buffers. It reports whether a frame was delivered.
func (s *Scheduler) cycle() (bool, error) {
	idx := 1 - s.active
	s.active = idx
	frame := &s.buffers[idx]
	frame.reset()

	s.mu.Lock()
	s.stats.Cycles++
	s.mu.Unlock()

	if err := s.sensor.ReadNextScan(frame); err != nil {
		frame.reset()
		s.mu.Lock()
		s.stats.Misses++
		s.mu.Unlock()
		return false, err
	}

	s.mu.Lock()
	s.stats.Frames++
	frame.Sequence = s.stats.Frames
	s.mu.Unlock()

	if s.state.CompareAndSwap(int32(StateIdle), int32(StateStreaming)) {
		diagf("first frame: %s, %d points", frame.Model, len(frame.Cloud))
	}

	if err := s.sink.Deliver(frame); err != nil {
		s.mu.Lock()
		s.stats.SinkFails++
		s.mu.Unlock()
		opsf("sink rejected frame %d: %v", frame.Sequence, err)
		return true, nil
	}
	tracef("delivered frame %d: %d points at %dus", frame.Sequence, len(frame.Cloud), frame.TimestampUs)
	return true, nil
}
