// Command lidar-replay plays a Velodyne capture file back as a stream of
// point-cloud frames at the recorded cadence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/lidar.replay/internal/config"
	"github.com/banshee-data/lidar.replay/internal/lidar/replay"
	"github.com/banshee-data/lidar.replay/internal/lidar/sensor"
	"github.com/banshee-data/lidar.replay/internal/lidar/sink"
	"github.com/banshee-data/lidar.replay/internal/monitoring"
	"github.com/banshee-data/lidar.replay/internal/version"
)

var (
	pcapFile        = flag.String("pcap", "", "Path to the capture file to replay (required)")
	configFile      = flag.String("config", "", "Path to a replay config JSON file (optional)")
	sensorKind      = flag.String("sensor", "", "Sensor kind: velodyne, velodyne_hdl or velodyne_vlp")
	replaySpeed     = flag.Float64("speed", 0, "Replay speed multiplier (1 = real time)")
	maxRange        = flag.Float64("max-range", 0, "Discard returns beyond this range in meters")
	verticalFov     = flag.Float64("fov", 0, "Vertical field of view in degrees")
	maxFrames       = flag.Uint64("frames", 0, "Stop after this many frames (0 = unlimited)")
	snapshotDir     = flag.String("snapshot-dir", "", "Write PNG snapshots of frames to this directory")
	snapshotEvery   = flag.Int("snapshot-every", 0, "Snapshot every Nth frame")
	chartFile       = flag.String("chart", "", "Write an HTML frame summary chart to this path on exit")
	logLevel        = flag.String("log-level", "", "Log level: off, ops, diag or trace")
	stopOnExhausted = flag.Bool("stop-on-exhausted", false, "Exit once the capture is exhausted instead of idling")
	showVersion     = flag.Bool("version", false, "Print version information and exit")
)

// options is the resolved configuration of one run.
type options struct {
	pcap      string
	cfg       *config.ReplayConfig
	snapshots string
	chart     string
	logOut    io.Writer
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("lidar-replay", version.String())
		return
	}
	if *pcapFile == "" {
		log.Fatal("-pcap is required")
	}

	cfg := config.EmptyReplayConfig()
	if *configFile != "" {
		loaded, err := config.LoadReplayConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		pcap:      *pcapFile,
		cfg:       cfg,
		snapshots: *snapshotDir,
		chart:     *chartFile,
		logOut:    os.Stderr,
	}
	if err := run(ctx, opts); err != nil {
		log.Fatalf("Replay failed: %v", err)
	}
}

// applyFlagOverrides copies every flag the user set explicitly into cfg.
func applyFlagOverrides(cfg *config.ReplayConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sensor":
			cfg.SensorKind = sensorKind
		case "speed":
			cfg.ReplaySpeed = replaySpeed
		case "max-range":
			cfg.MaxRangeMeters = maxRange
		case "fov":
			cfg.VerticalFovDegrees = verticalFov
		case "frames":
			cfg.MaxFrames = maxFrames
		case "snapshot-every":
			cfg.SnapshotEvery = snapshotEvery
		case "log-level":
			cfg.LogLevel = logLevel
		case "stop-on-exhausted":
			cfg.StopOnExhausted = stopOnExhausted
		}
	})
}

// run replays opts.pcap until the context is cancelled, the frame limit is
// reached, or the capture is exhausted with stop_on_exhausted set.
func run(ctx context.Context, opts options) error {
	cfg := opts.cfg
	if _, err := monitoring.ConfigureLogging(cfg.GetLogLevel(), opts.logOut); err != nil {
		return err
	}

	v, err := sensor.New(cfg.GetSensorKind(), opts.pcap)
	if err != nil {
		return err
	}
	v.SetSpinRPM(cfg.GetSpinRPM())
	if err := v.Configure(cfg.GetVerticalFovDegrees(), cfg.GetMaxRangeMeters()); err != nil {
		return err
	}
	defer v.Close()

	sinks := sink.Tee{sink.Logger}
	if opts.snapshots != "" && cfg.GetSnapshotEvery() > 0 {
		ps, err := sink.NewPlotSnapshotter(opts.snapshots, cfg.GetSnapshotEvery(), cfg.GetSnapshotMaxPoints())
		if err != nil {
			return err
		}
		sinks = append(sinks, ps)
	}
	var chart *sink.ChartRecorder
	if opts.chart != "" {
		chart = sink.NewChartRecorder(fmt.Sprintf("%s replay: %s", v.Name, opts.pcap), cfg.GetChartMaxPoints())
		sinks = append(sinks, chart)
	}

	sched, err := replay.NewScheduler(v, sinks, nil, cfg.SchedulerConfig())
	if err != nil {
		return err
	}

	monitoring.Logf("lidar-replay %s: replaying %s as %s at %.2fx (period %s)",
		version.Version, opts.pcap, v.Name, sched.ReplaySpeed(), sched.Period())
	runErr := sched.Run(ctx)

	stats := sched.Stats()
	monitoring.Logf("Replay finished: %d cycles, %d frames, %d misses, %d sink failures",
		stats.Cycles, stats.Frames, stats.Misses, stats.SinkFails)
	if s := v.Session(); s != nil {
		st := s.Stats()
		monitoring.Logf("Capture: %d data, %d position, %d skipped records; timestamps %s",
			st.Data, st.Position, st.Skipped, s.Decision())
	}

	if chart != nil {
		if err := chart.WriteFile(opts.chart); err != nil {
			return err
		}
		monitoring.Logf("Wrote chart to %s", opts.chart)
	}

	switch {
	case runErr == nil, errors.Is(runErr, context.Canceled):
		return nil
	case errors.Is(runErr, replay.ErrExhausted):
		if stats.Frames > 0 {
			return nil
		}
		return fmt.Errorf("no frames in %s: %w", opts.pcap, runErr)
	default:
		return runErr
	}
}
