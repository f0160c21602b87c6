// Package sensor provides replay sources backed by capture files.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/lidar.replay/internal/lidar/geometry"
	"github.com/banshee-data/lidar.replay/internal/lidar/replay"
	"github.com/banshee-data/lidar.replay/internal/lidar/velodyne"
)

// Sensor kinds accepted by New.
const (
	KindVelodyne    = "velodyne"
	KindVelodyneHDL = "velodyne_hdl"
	KindVelodyneVLP = "velodyne_vlp"
)

// Defaults applied when a caller does not configure the sensor explicitly.
const (
	DefaultVerticalFovDegrees = 30.0
	DefaultMaxRangeMeters     = geometry.DefaultMaxRangeMeters
)

// ErrNotConfigured is returned by ReadNextScan before Configure.
var ErrNotConfigured = errors.New("sensor not configured")

// Velodyne replays a Velodyne capture file as a replay.Sensor.
type Velodyne struct {
	Name string
	Kind string
	Path string

	verticalFovDeg float64
	spinRPM        float64

	session   *velodyne.Session
	recon     *geometry.Reconstructor
	scan      velodyne.Scan
	finalized bool
}

// New creates a Velodyne sensor for kind, matched case-insensitively.
func New(kind, path string) (*Velodyne, error) {
	if path == "" {
		return nil, fmt.Errorf("sensor: capture path is required")
	}
	v := &Velodyne{Kind: strings.ToLower(strings.TrimSpace(kind)), Path: path, spinRPM: geometry.DefaultSpinRPM}
	switch v.Kind {
	case KindVelodyne, KindVelodyneHDL:
		v.Name = "Velodyne HDL-32E"
	case KindVelodyneVLP:
		v.Name = "Velodyne VLP-16"
	default:
		return nil, fmt.Errorf("sensor: unsupported kind %q", kind)
	}
	return v, nil
}

// SetSpinRPM overrides the nominal spin rate used for per-beam timing
// correction. It takes effect at Configure.
func (v *Velodyne) SetSpinRPM(rpm float64) {
	v.spinRPM = rpm
}

// Configure opens the capture and prepares reconstruction with the given
// range ceiling. verticalFovDeg is recorded for consumers and clamped to
// (0, 180], with non-positive values replaced by DefaultVerticalFovDegrees;
// the fixed calibration tables do not depend on it.
func (v *Velodyne) Configure(verticalFovDeg, maxRangeMeters float64) error {
	if v.session != nil {
		return fmt.Errorf("sensor: %s already configured", v.Name)
	}
	s, err := velodyne.OpenSession(v.Path)
	if err != nil {
		return fmt.Errorf("sensor: %w", err)
	}
	v.session = s
	v.verticalFovDeg = clampFov(verticalFovDeg)
	v.recon = geometry.NewReconstructor(maxRangeMeters, v.spinRPM)
	diagf("%s: opened %s (session %s, timestamps %s, max range %.2fm)",
		v.Name, v.Path, s.ID, s.Decision(), v.recon.MaxRange())
	return nil
}

// SetMaxRange changes the range ceiling for subsequent scans.
func (v *Velodyne) SetMaxRange(m float64) {
	if v.recon != nil {
		v.recon.SetMaxRange(m)
	}
}

// VerticalFovDegrees returns the configured vertical field of view.
func (v *Velodyne) VerticalFovDegrees() float64 {
	return v.verticalFovDeg
}

// Session returns the open capture session, or nil.
func (v *Velodyne) Session() *velodyne.Session {
	return v.session
}

// ReadNextScan assembles the next scan and reconstructs it into frame. The
// capture is closed on the first failure; every later call returns an error
// wrapping velodyne.ErrScanExhausted.
func (v *Velodyne) ReadNextScan(frame *replay.Frame) error {
	if v.session == nil {
		return ErrNotConfigured
	}
	if v.finalized {
		return fmt.Errorf("%w: %s finished", velodyne.ErrScanExhausted, v.Path)
	}
	if err := v.session.ReadScan(&v.scan); err != nil {
		v.finalize()
		return err
	}

	frame.Cloud = v.recon.PopulateCloud(&v.scan, frame.Cloud[:0])
	frame.TimestampUs = v.scan.TimestampUs
	frame.Model = v.scan.Model
	return nil
}

// Close releases the capture file.
func (v *Velodyne) Close() error {
	if v.session == nil {
		return nil
	}
	v.finalized = true
	return v.session.Close()
}

func (v *Velodyne) finalize() {
	if v.finalized {
		return
	}
	v.finalized = true
	if err := v.session.Close(); err != nil {
		opsf("%s: closing %s: %v", v.Name, v.Path, err)
	}
	diagf("%s: finished %s after %d scans", v.Name, v.Path, v.session.Scans())
}

func clampFov(deg float64) float64 {
	switch {
	case math.IsNaN(deg) || deg <= 0:
		return DefaultVerticalFovDegrees
	case deg > 180:
		return 180
	default:
		return deg
	}
}
