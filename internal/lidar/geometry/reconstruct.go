// Package geometry back-projects decoded firings into Cartesian points.
package geometry

import (
	"math"

	"github.com/banshee-data/lidar.replay/internal/lidar/velodyne"
)

// Point is one reconstructed return in the sensor frame: x forward, y to the
// right, z up, in metres. Intensity is reflectivity scaled to [0, 1].
type Point struct {
	X, Y, Z   float32
	Intensity float32
}

// PointCloud is an ordered set of points. Order follows firing order.
type PointCloud []Point

const (
	DefaultMaxRangeMeters = 120.0
	MinMaxRangeMeters     = 0.01
	DefaultSpinRPM        = 600.0
)

// azimuthRadPerTick converts 0.01° azimuth ticks to radians.
const azimuthRadPerTick = 2 * math.Pi / velodyne.ROTATION_MAX_UNITS

// SpinRate converts revolutions per minute to radians per microsecond.
func SpinRate(rpm float64) float64 {
	return rpm / 60 * 2 * math.Pi / 1e6
}

// ClampMaxRange applies the lower bound on the range ceiling.
func ClampMaxRange(m float64) float64 {
	if m < MinMaxRangeMeters || math.IsNaN(m) {
		return MinMaxRangeMeters
	}
	return m
}

// Reconstructor converts firings to points for a fixed range ceiling and
// spin rate.
type Reconstructor struct {
	maxRange float64
	spinRate float64 // rad/µs
}

// NewReconstructor creates a reconstructor. maxRange is clamped to at least
// MinMaxRangeMeters; a non-positive rpm selects DefaultSpinRPM.
func NewReconstructor(maxRange, rpm float64) *Reconstructor {
	if rpm <= 0 {
		rpm = DefaultSpinRPM
	}
	return &Reconstructor{maxRange: ClampMaxRange(maxRange), spinRate: SpinRate(rpm)}
}

// MaxRange returns the range ceiling in metres.
func (r *Reconstructor) MaxRange() float64 { return r.maxRange }

// SetMaxRange changes the range ceiling, clamped as in NewReconstructor.
func (r *Reconstructor) SetMaxRange(m float64) { r.maxRange = ClampMaxRange(m) }

// Reconstruct converts one beam of a firing using the model's profile.
func (r *Reconstructor) Reconstruct(f *velodyne.Firing, beam int, model velodyne.HardwareModel) (Point, bool) {
	return r.ReconstructWith(f, beam, model.Profile())
}

// ReconstructWith converts one beam of a firing. It reports false for beams
// with no return, beams beyond the range ceiling, and beam indices outside
// the profile.
func (r *Reconstructor) ReconstructWith(f *velodyne.Firing, beam int, p *velodyne.Profile) (Point, bool) {
	if beam < 0 || beam >= p.Configuration.NumBeams {
		return Point{}, false
	}
	ret := f.Returns[beam]
	if ret.Distance == 0 {
		return Point{}, false
	}
	rangeM := float64(ret.Distance) * p.MetersPerTick
	if rangeM > r.maxRange {
		return Point{}, false
	}

	phi := p.VerticalAnglesRad[beam]
	theta := float64(f.Azimuth)*azimuthRadPerTick + r.spinRate*float64(beam)*p.MicrosecondsPerLaserFiring

	cosPhi := math.Cos(phi)
	return Point{
		X:         float32(rangeM * cosPhi * math.Cos(theta)),
		Y:         float32(-rangeM * cosPhi * math.Sin(theta)),
		Z:         float32(rangeM * math.Sin(phi)),
		Intensity: float32(ret.Reflectivity) / 255,
	}, true
}

// PopulateCloud appends the points of every firing in scan to dst and
// returns the extended slice. A discarded scan adds nothing.
func (r *Reconstructor) PopulateCloud(scan *velodyne.Scan, dst PointCloud) PointCloud {
	if !scan.Valid() {
		return dst
	}
	p := scan.Profile()
	rejected := 0
	for i := range scan.Firings {
		f := &scan.Firings[i]
		for beam := 0; beam < p.Configuration.NumBeams; beam++ {
			if pt, ok := r.ReconstructWith(f, beam, p); ok {
				dst = append(dst, pt)
			} else if f.Returns[beam].Distance != 0 {
				rejected++
			}
		}
	}
	if rejected > 0 {
		tracef("%d returns beyond %.2fm rejected", rejected, r.maxRange)
	}
	return dst
}
