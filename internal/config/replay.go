package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/lidar.replay/internal/lidar"
	"github.com/banshee-data/lidar.replay/internal/lidar/geometry"
	"github.com/banshee-data/lidar.replay/internal/lidar/replay"
	"github.com/banshee-data/lidar.replay/internal/lidar/sensor"
)

// DefaultConfigPath is the path to the canonical replay defaults file.
const DefaultConfigPath = "config/replay.defaults.json"

// ReplayConfig holds the tunables of a replay run. Every field is optional;
// the Get* methods supply the default for anything left unset, so partial
// files are safe. Command-line flags override loaded values.
type ReplayConfig struct {
	// Sensor params
	SensorKind         *string  `json:"sensor_kind,omitempty"`
	MaxRangeMeters     *float64 `json:"max_range_meters,omitempty"`
	VerticalFovDegrees *float64 `json:"vertical_fov_degrees,omitempty"`
	SpinRPM            *float64 `json:"spin_rpm,omitempty"`

	// Scheduler params
	ReplaySpeed         *float64 `json:"replay_speed,omitempty"`
	TargetFrameDuration *string  `json:"target_frame_duration,omitempty"` // duration string like "33ms"
	StopOnExhausted     *bool    `json:"stop_on_exhausted,omitempty"`
	MaxFrames           *uint64  `json:"max_frames,omitempty"`

	// Output params
	SnapshotEvery     *int `json:"snapshot_every,omitempty"`
	SnapshotMaxPoints *int `json:"snapshot_max_points,omitempty"`
	ChartMaxPoints    *int `json:"chart_max_points,omitempty"`

	LogLevel *string `json:"log_level,omitempty"`
}

// EmptyReplayConfig returns a ReplayConfig with every field unset.
func EmptyReplayConfig() *ReplayConfig {
	return &ReplayConfig{}
}

// LoadReplayConfig loads a ReplayConfig from a JSON file with a .json
// extension and at most 1MB in size.
func LoadReplayConfig(path string) (*ReplayConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyReplayConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *ReplayConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,             // from cmd/lidar-replay/
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/lidar/sensor/
		"../../../../" + DefaultConfigPath,    // deeper packages
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadReplayConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set. max_range_meters and
// replay_speed below their floors are accepted and clamped by the getters.
func (c *ReplayConfig) Validate() error {
	if c.SensorKind != nil {
		switch strings.ToLower(strings.TrimSpace(*c.SensorKind)) {
		case sensor.KindVelodyne, sensor.KindVelodyneHDL, sensor.KindVelodyneVLP:
		default:
			return fmt.Errorf("unsupported sensor_kind %q", *c.SensorKind)
		}
	}

	if c.MaxRangeMeters != nil {
		if v := *c.MaxRangeMeters; math.IsNaN(v) {
			return fmt.Errorf("max_range_meters must be a number, got %f", v)
		}
	}

	if c.VerticalFovDegrees != nil {
		if v := *c.VerticalFovDegrees; math.IsNaN(v) || v <= 0 || v > 180 {
			return fmt.Errorf("vertical_fov_degrees must be in (0, 180], got %f", v)
		}
	}

	if c.SpinRPM != nil {
		if v := *c.SpinRPM; math.IsNaN(v) || v <= 0 {
			return fmt.Errorf("spin_rpm must be positive, got %f", v)
		}
	}

	if c.ReplaySpeed != nil {
		if v := *c.ReplaySpeed; math.IsNaN(v) {
			return fmt.Errorf("replay_speed must be a number, got %f", v)
		}
	}

	if c.TargetFrameDuration != nil && *c.TargetFrameDuration != "" {
		d, err := time.ParseDuration(*c.TargetFrameDuration)
		if err != nil {
			return fmt.Errorf("invalid target_frame_duration '%s': %w", *c.TargetFrameDuration, err)
		}
		if d <= 0 {
			return fmt.Errorf("target_frame_duration must be positive, got %s", d)
		}
	}

	if c.SnapshotEvery != nil && *c.SnapshotEvery < 0 {
		return fmt.Errorf("snapshot_every must be non-negative, got %d", *c.SnapshotEvery)
	}
	if c.SnapshotMaxPoints != nil && *c.SnapshotMaxPoints < 1 {
		return fmt.Errorf("snapshot_max_points must be positive, got %d", *c.SnapshotMaxPoints)
	}
	if c.ChartMaxPoints != nil && *c.ChartMaxPoints < 1 {
		return fmt.Errorf("chart_max_points must be positive, got %d", *c.ChartMaxPoints)
	}

	if c.LogLevel != nil {
		if _, err := lidar.NewLogWriters(*c.LogLevel, nil); err != nil {
			return err
		}
	}
	return nil
}

// GetSensorKind returns the sensor_kind value or the default.
func (c *ReplayConfig) GetSensorKind() string {
	if c.SensorKind == nil || *c.SensorKind == "" {
		return sensor.KindVelodyne
	}
	return *c.SensorKind
}

// GetMaxRangeMeters returns the max_range_meters value, clamped to
// geometry.MinMaxRangeMeters, or the default.
func (c *ReplayConfig) GetMaxRangeMeters() float64 {
	if c.MaxRangeMeters == nil {
		return sensor.DefaultMaxRangeMeters
	}
	return geometry.ClampMaxRange(*c.MaxRangeMeters)
}

// GetVerticalFovDegrees returns the vertical_fov_degrees value or the default.
func (c *ReplayConfig) GetVerticalFovDegrees() float64 {
	if c.VerticalFovDegrees == nil {
		return sensor.DefaultVerticalFovDegrees
	}
	return *c.VerticalFovDegrees
}

// GetSpinRPM returns the spin_rpm value or the default.
func (c *ReplayConfig) GetSpinRPM() float64 {
	if c.SpinRPM == nil {
		return geometry.DefaultSpinRPM
	}
	return *c.SpinRPM
}

// GetReplaySpeed returns the replay_speed value, clamped to
// replay.MinReplaySpeed, or the default.
func (c *ReplayConfig) GetReplaySpeed() float64 {
	if c.ReplaySpeed == nil {
		return 1.0
	}
	return replay.ClampReplaySpeed(*c.ReplaySpeed)
}

// GetTargetFrameDuration parses and returns the TargetFrameDuration.
func (c *ReplayConfig) GetTargetFrameDuration() time.Duration {
	if c.TargetFrameDuration == nil || *c.TargetFrameDuration == "" {
		return replay.DefaultTargetFrameDuration
	}
	d, err := time.ParseDuration(*c.TargetFrameDuration)
	if err != nil || d <= 0 {
		return replay.DefaultTargetFrameDuration // default on parse error
	}
	return d
}

// GetStopOnExhausted returns the stop_on_exhausted value or the default.
func (c *ReplayConfig) GetStopOnExhausted() bool {
	if c.StopOnExhausted == nil {
		return false // default: idle until stopped
	}
	return *c.StopOnExhausted
}

// GetMaxFrames returns the max_frames value or the default (unlimited).
func (c *ReplayConfig) GetMaxFrames() uint64 {
	if c.MaxFrames == nil {
		return 0
	}
	return *c.MaxFrames
}

// GetSnapshotEvery returns the snapshot_every value or the default.
func (c *ReplayConfig) GetSnapshotEvery() int {
	if c.SnapshotEvery == nil {
		return 10
	}
	return *c.SnapshotEvery
}

// GetSnapshotMaxPoints returns the snapshot_max_points value or the default.
func (c *ReplayConfig) GetSnapshotMaxPoints() int {
	if c.SnapshotMaxPoints == nil {
		return 20000
	}
	return *c.SnapshotMaxPoints
}

// GetChartMaxPoints returns the chart_max_points value or the default.
func (c *ReplayConfig) GetChartMaxPoints() int {
	if c.ChartMaxPoints == nil {
		return 5000
	}
	return *c.ChartMaxPoints
}

// GetLogLevel returns the log_level value or the default.
func (c *ReplayConfig) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return lidar.LevelOps
	}
	return *c.LogLevel
}

// SchedulerConfig returns the replay.Config described by c.
func (c *ReplayConfig) SchedulerConfig() replay.Config {
	cfg := replay.DefaultConfig()
	cfg.TargetFrameDuration = c.GetTargetFrameDuration()
	cfg.ReplaySpeed = c.GetReplaySpeed()
	cfg.StopOnExhausted = c.GetStopOnExhausted()
	cfg.MaxFrames = c.GetMaxFrames()
	return cfg
}
