package monitoring

import (
	"io"
	"log"

	"github.com/banshee-data/lidar.replay/internal/lidar"
	"github.com/banshee-data/lidar.replay/internal/lidar/capture"
	"github.com/banshee-data/lidar.replay/internal/lidar/geometry"
	"github.com/banshee-data/lidar.replay/internal/lidar/replay"
	"github.com/banshee-data/lidar.replay/internal/lidar/sensor"
	"github.com/banshee-data/lidar.replay/internal/lidar/sink"
	"github.com/banshee-data/lidar.replay/internal/lidar/timescale"
	"github.com/banshee-data/lidar.replay/internal/lidar/velodyne"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// ConfigureLogging routes the ops, diag and trace streams of every lidar
// package to w, up to and including level. It returns the writers it
// installed so callers can reuse them.
func ConfigureLogging(level string, w io.Writer) (lidar.LogWriters, error) {
	writers, err := lidar.NewLogWriters(level, w)
	if err != nil {
		return lidar.LogWriters{}, err
	}
	for _, set := range []func(lidar.LogWriters){
		capture.SetLogWriters,
		timescale.SetLogWriters,
		velodyne.SetLogWriters,
		geometry.SetLogWriters,
		sensor.SetLogWriters,
		replay.SetLogWriters,
		sink.SetLogWriters,
	} {
		set(writers)
	}
	return writers, nil
}
